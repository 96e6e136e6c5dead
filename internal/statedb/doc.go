// Package statedb owns the SQLite database shared by the response cache and
// the show identifier table.
//
// Open applies WAL, busy timeout, and the embedded schema migrations before
// handing the connection to repositories. Writes go through ExecWithRetry so
// two concurrent runs contending for the file degrade to a short backoff
// instead of a hard SQLITE_BUSY failure.
package statedb
