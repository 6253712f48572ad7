package common

// WipeByteArray zeroes b. Passwords read from the terminal are wiped once
// they have been sent.
func WipeByteArray(b []byte) {
	clear(b)
}
