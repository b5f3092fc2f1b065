/*
Package ports defines the driven ports (interfaces) for the espalier engine.

These interfaces decouple the routing core from external implementations:
node logic, LLM clients, session storage and lifecycle hooks are all injected
at construction, never resolved by runtime introspection.

# Key Interfaces

  - Node: the minimal capability every processing unit implements.
  - Interactive: the optional question/answer lifecycle capability.
  - LLM: the opaque text-completion capability used for disambiguation.
  - StateStore: session persistence for durable conversations.
  - Hooks: pre/post execution customization points.
*/
package ports
