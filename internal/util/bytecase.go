package util

// ByteLowercase returns a [byte-lowercase] version of str.
// Non-ASCII bytes are left untouched.
// If str contains no uppercase ASCII letters, ByteLowercase returns str
// without allocating.
//
// [byte-lowercase]: https://infra.spec.whatwg.org/#byte-lowercase
func ByteLowercase(str string) string {
	return mapASCII(str, 'A', 'Z', 'a'-'A')
}

// ByteUppercase returns a [byte-uppercase] version of str.
// Non-ASCII bytes are left untouched.
// If str contains no lowercase ASCII letters, ByteUppercase returns str
// without allocating.
//
// [byte-uppercase]: https://infra.spec.whatwg.org/#byte-uppercase
func ByteUppercase(str string) string {
	return mapASCII(str, 'a', 'z', 'A'-'a')
}

// mapASCII shifts by delta every byte of str that lies in the [lo, hi] range.
func mapASCII(str string, lo, hi byte, delta int) string {
	i := 0
	for ; i < len(str); i++ {
		if lo <= str[i] && str[i] <= hi {
			break
		}
	}
	if i == len(str) {
		return str
	}
	buf := []byte(str)
	for ; i < len(buf); i++ {
		if lo <= buf[i] && buf[i] <= hi {
			buf[i] = byte(int(buf[i]) + delta)
		}
	}
	return string(buf)
}
