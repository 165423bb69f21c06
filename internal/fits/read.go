package fits

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// ErrNoEnd indicates a header without an END card within the scanned blocks.
var ErrNoEnd = errors.New("fits: no END card found")

// maxHeaderBlocks caps how far ReadHeader scans before deciding a file is
// not a FITS image. 100 blocks is 3600 cards, far beyond any real header.
const maxHeaderBlocks = 100

// ReadHeader parses the primary header of the FITS file at path.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readHeader(f)
}

// ReadHeaderMap returns the header as a plain mapping, or an empty mapping
// if the file cannot be read as FITS. Callers that only consume scalar
// key/value facts use this form; unreadable metadata is not an error.
func ReadHeaderMap(path string) map[string]any {
	h, err := ReadHeader(path)
	if err != nil {
		return map[string]any{}
	}
	return h.Map()
}

func readHeader(r io.Reader) (*Header, error) {
	h := NewHeader()
	block := make([]byte, blockSize)

	for nblocks := 0; nblocks < maxHeaderBlocks; nblocks++ {
		if _, err := io.ReadFull(r, block); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrNoEnd
			}
			return nil, err
		}
		if nblocks == 0 && !strings.HasPrefix(string(block[:8]), "SIMPLE") &&
			!strings.HasPrefix(string(block[:8]), "XTENSIO") {
			return nil, fmt.Errorf("fits: not a FITS header")
		}
		for i := 0; i < blockSize; i += cardSize {
			card := string(block[i : i+cardSize])
			key := strings.TrimRight(card[:8], " ")
			if key == "END" {
				return h, nil
			}
			if key == "" || key == "COMMENT" || key == "HISTORY" {
				continue
			}
			if len(card) < 10 || card[8] != '=' {
				continue
			}
			value, comment, err := parseValue(card[10:])
			if err != nil {
				continue
			}
			h.Set(key, value, comment)
		}
	}
	return nil, ErrNoEnd
}

// parseValue interprets the value field of a card: quoted string, logical
// T/F, integer, or float. The comment begins at the first '/' outside a
// string.
func parseValue(field string) (any, string, error) {
	s := strings.TrimLeft(field, " ")
	if s == "" {
		return "", "", nil
	}

	if s[0] == '\'' {
		// Quoted string; '' is an escaped quote.
		var sb strings.Builder
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			sb.WriteByte(s[i])
			i++
		}
		comment := trimComment(s[i:])
		// Trailing blanks inside the quotes are padding, not data.
		return strings.TrimRight(sb.String(), " "), comment, nil
	}

	val := s
	comment := ""
	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		val = s[:slash]
		comment = strings.TrimSpace(s[slash+1:])
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", comment, nil
	}

	switch val {
	case "T":
		return true, comment, nil
	case "F":
		return false, comment, nil
	}

	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return n, comment, nil
	}
	// FITS allows D exponents in floats.
	if f, err := strconv.ParseFloat(strings.Replace(val, "D", "E", 1), 64); err == nil {
		return f, comment, nil
	}
	return val, comment, nil
}

func trimComment(rest string) string {
	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "/") {
		return strings.TrimSpace(rest[1:])
	}
	return ""
}
