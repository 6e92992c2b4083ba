// Package auth provides the password encryptors used by the user store.
//
// An encryptor turns a plaintext password into the opaque string persisted in
// the user file and later checks a login attempt against it. MD5 is the
// historical default of properties-based FTP user files; Crypt and Argon2id
// are salted alternatives.
package auth
