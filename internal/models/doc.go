// Package models defines domain entities and persistence interfaces for the libris catalog client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from and encoded to the catalog API
//   - [Book] : Catalog entry with loan status
//   - [Collection] : User-owned reading list holding a set of book ids
//   - [Favorite] : Single favorited book (favorites deployments)
//   - [ChatReply] : Assistant response from the chat endpoint
//
// 2. Persistent Entities: local sqlite records with lifecycle management
//   - [Credentials] : Identity provider session persisted between runs
//   - [ImportJob] : Catalog import run tracking progress and results
//
// Persistent entities with generated ids implement [Model] and are stored through a [Repository].
// The command line records import runs through a Repository[*ImportJob].
package models
