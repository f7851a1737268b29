/*
Package ports defines the driven ports (interfaces) of the pose pipeline.

These interfaces decouple the registry and the runners from the systems that
execute tool invocations and keep table snapshots.

# Key Interfaces

  - JobStarter: Runs the batch of command lines a runner builds for a stage.
  - TableStore: Persists and loads registry table snapshots by key.
*/
package ports
