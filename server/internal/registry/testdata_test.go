package registry

const sampleYAML = `
domains:
  primary: Docs.Example.com.
modules:
  - id: docs
    path: /docs
    domain: {ref: primary}
    versions:
      - id: v1
        clusters:
          - id: eu
            domain: eu.example.com
          - id: us
            default: true
          - link: eu
      - id: v2
        default: true
        generator: {kind: prefix, path: /archive}
      - link: v1
    clusters:
      - id: staging
        generator: {kind: replace}
  - id: blog
    path: /blog
    quiet_path: /news
    domain: blog.example.com
`
