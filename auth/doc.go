// Package auth decides two things: whether a username/password pair is valid
// and whether a user id still denotes a real user.
//
// Passwords are never stored. What goes into the credential store is an
// Argon2id digest in the PHC string format shared by most argon2 libraries,
// so rows written by other tools verify here too:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
//
// Salt, parameters and key are all encoded in the digest, which means the
// work factor can be raised later without breaking older rows.
//
// A wrong password and an unknown username look exactly the same to callers
// (both return a nil Identity and a nil error). Unknown usernames also pay
// for one verification against a dummy digest, so response time does not tell
// them apart either.
//
// A digest that cannot be parsed is NOT treated as a wrong password, it means
// the row got corrupted somehow and the error goes all the way up.
//
// Sessions are kept in memory (bigcache), a restart logs everybody out.
// Every request re-validates the session bound id with LoadIdentity, so a
// user removed from the database stops being accepted right away.
package auth
