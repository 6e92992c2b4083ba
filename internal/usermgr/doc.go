// Package usermgr implements a file-backed FTP user store.
//
// Users live in a flat properties file (or a read-only URL) as keys of the form
//
//	ftpserver.user.<name>.<attribute>=<value>
//
// The Manager keeps the parsed table in memory, rewrites the whole file on
// every Save or Delete, and rebuilds the table from scratch on Refresh. A user
// exists iff its homedirectory key is present; every other attribute is
// optional and defaulted when the user is read back.
package usermgr
