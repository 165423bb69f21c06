package fits

import (
	"fmt"
	"os"
	"strings"
)

// KeyValue is one header assignment to apply.
type KeyValue struct {
	Name  string
	Value string
}

// PatchHeader updates or appends value cards in the primary header of the
// file at path. Untouched cards keep their original bytes. The file is
// rewritten only when the header grows past its current block count.
func PatchHeader(path string, pairs []KeyValue) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cards, headerLen, err := splitCards(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, kv := range pairs {
		replaced := false
		for i, card := range cards {
			if strings.TrimRight(card[:8], " ") == kv.Name {
				cards[i] = formatCard(kv.Name, kv.Value)
				replaced = true
				break
			}
		}
		if !replaced {
			cards = append(cards, formatCard(kv.Name, kv.Value))
		}
	}

	header := assembleHeader(cards)
	if len(header) == headerLen {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteAt([]byte(header), 0)
		return err
	}

	// Header grew into a new block; rewrite the whole file.
	out := make([]byte, 0, len(header)+len(raw)-headerLen)
	out = append(out, header...)
	out = append(out, raw[headerLen:]...)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}

// splitCards returns the raw cards preceding END and the byte length of the
// header region including its padding.
func splitCards(raw []byte) ([]string, int, error) {
	var cards []string
	for off := 0; off+blockSize <= len(raw); off += blockSize {
		for i := off; i < off+blockSize; i += cardSize {
			card := string(raw[i : i+cardSize])
			key := strings.TrimRight(card[:8], " ")
			if key == "END" {
				return cards, off + blockSize, nil
			}
			if key != "" {
				cards = append(cards, card)
			}
		}
	}
	return nil, 0, ErrNoEnd
}

func assembleHeader(cards []string) string {
	var sb strings.Builder
	for _, card := range cards {
		sb.WriteString(card)
	}
	sb.WriteString(fmt.Sprintf("%-80s", "END"))
	for sb.Len()%blockSize != 0 {
		sb.WriteString(strings.Repeat(" ", cardSize))
	}
	return sb.String()
}

// formatCard renders a fixed-format value card. String values are quoted
// with a minimum width of 8 inside the quotes, per the FITS standard.
func formatCard(key, value string) string {
	quoted := "'" + fmt.Sprintf("%-8s", strings.ReplaceAll(value, "'", "''")) + "'"
	card := fmt.Sprintf("%-8s= %s", key, quoted)
	if len(card) > cardSize {
		card = card[:cardSize]
	}
	return fmt.Sprintf("%-80s", card)
}
