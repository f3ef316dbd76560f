// Package jwt issues and verifies the bearer tokens carried by API callers.
//
// Tokens are HS512 signed. The subject is the service client id and the
// principal claim says what kind of caller the token represents. Verified
// claims travel through request contexts via SetAuth and GetAuth.
package jwt
