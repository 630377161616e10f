package conf

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// NewEnvExpandedReader expands ${VAR} and ${VAR:-default} line by line.
func NewEnvExpandedReader(origin io.Reader) io.Reader {
	return &envExpandedReader{
		origin: bufio.NewReader(origin),
	}
}

type envExpandedReader struct {
	origin  *bufio.Reader
	pending []byte
	eof     bool
}

func (r *envExpandedReader) Read(p []byte) (int, error) {
	for len(r.pending) < len(p) && !r.eof {
		line, err := r.origin.ReadString('\n')
		if err != nil && err != io.EOF {
			return 0, err
		}

		r.pending = append(r.pending, os.Expand(line, lookupEnv)...)

		if err == io.EOF {
			r.eof = true
		}
	}

	if len(r.pending) == 0 && r.eof {
		return 0, io.EOF
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func lookupEnv(key string) string {
	name, fallback, hasDefault := strings.Cut(key, ":-")

	value, ok := os.LookupEnv(name)
	if !ok || (hasDefault && value == "") {
		return fallback
	}

	return value
}
