package utils

import (
	"bytes"
	"encoding/binary"

	"github.com/JonYeb/sleeping_dogs_browser/config"

	"golang.org/x/text/transform"
)

func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		panic(err)
	}

	return string(s)
}

func StringToBytesBuffer(s string, bufSize int, nilTerminate bool) []byte {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		panic(err)
	}
	if nilTerminate {
		bs = append(bs, 0)
	}
	if len(bs) < bufSize {
		r := make([]byte, bufSize)
		copy(r, bs)
		bs = r
	} else if len(bs) > bufSize {
		panic(bs)
	}
	return bs
}

func AsBytes(data interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
