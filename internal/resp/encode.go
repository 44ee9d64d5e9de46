package resp

import "strconv"

// AppendSimple appends a RESP simple string reply ("+<text>\r\n") to buf.
func AppendSimple(buf []byte, text string) []byte {
	buf = append(buf, '+')
	buf = append(buf, text...)
	return append(buf, '\r', '\n')
}

// AppendError appends a RESP error reply ("-<text>\r\n") to buf.
func AppendError(buf []byte, text string) []byte {
	buf = append(buf, '-')
	buf = append(buf, text...)
	return append(buf, '\r', '\n')
}

// AppendInteger appends a RESP integer reply (":<decimal>\r\n") to buf.
func AppendInteger(buf []byte, v int64) []byte {
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, v, 10)
	return append(buf, '\r', '\n')
}

// AppendBulk appends a RESP bulk string reply ("$<len>\r\n<bytes>\r\n") to buf.
func AppendBulk(buf []byte, v []byte) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(v)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, v...)
	return append(buf, '\r', '\n')
}

// AppendNullBulk appends the RESP null bulk reply ("$-1\r\n") to buf.
func AppendNullBulk(buf []byte) []byte {
	return append(buf, '$', '-', '1', '\r', '\n')
}

// AppendArrayHeader appends a RESP array header ("*<count>\r\n") to buf; the
// caller is responsible for appending exactly count encoded elements after.
func AppendArrayHeader(buf []byte, count int) []byte {
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(count), 10)
	return append(buf, '\r', '\n')
}
