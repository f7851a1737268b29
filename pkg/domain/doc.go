/*
Package domain contains the core data model shared by every protflow component.

It defines the table abstraction that backs the pose registry, the normalized cell
values it stores, the naming rules that tie a description to its file location,
and the error taxonomy surfaced by registry, reconciliation and runner operations.
This package is kept free of I/O so that reconciliation can be reasoned about and
tested as a pure transformation.

# Key Entities

  - Table: ordered columns plus ordered rows of normalized cells.
  - Row: a single record keyed by column name.
  - JoinError / SchemaError: typed failures that wrap the package sentinels.
  - LifecycleHooks: callbacks fired around stage execution and merges.
*/
package domain
