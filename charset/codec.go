package charset

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

const (
	UTF8    = "utf-8"
	GB2312  = "gb2312"
	GBK     = "gbk"
	GB18030 = "gb18030"
	Latin1  = "latin-1"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
)

var aliases = map[string]string{
	"utf8":     UTF8,
	"utf8sig":  UTF8,
	"gb2312":   GB2312,
	"euccn":    GB2312,
	"gbk":      GBK,
	"cp936":    GBK,
	"gb18030":  GB18030,
	"latin1":   Latin1,
	"iso88591": Latin1,
	"l1":       Latin1,
	"utf16le":  UTF16LE,
	"utf16be":  UTF16BE,
}

var nameCleaner = strings.NewReplacer("-", "", "_", "", " ", "")

// Normalize maps an encoding label to the canonical name used by this
// package. Unknown labels are lowercased and returned as is.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[nameCleaner.Replace(name)]; ok {
		return canonical
	}
	return name
}

type codec struct {
	name string
	enc  encoding.Encoding

	// valid, when set, rejects input the decoder would otherwise accept.
	valid func([]byte) bool
}

func lookup(name string) (codec, error) {
	name = Normalize(name)
	switch name {
	case "":
		return codec{}, errors.New("empty encoding name")
	case UTF8:
		return codec{name: name}, nil
	case GB2312:
		return codec{name: name, enc: simplifiedchinese.GBK, valid: validGB2312}, nil
	case GBK:
		return codec{name: name, enc: simplifiedchinese.GBK}, nil
	case GB18030:
		return codec{name: name, enc: simplifiedchinese.GB18030}, nil
	case Latin1:
		return codec{name: name, enc: charmap.ISO8859_1}, nil
	case UTF16LE:
		return codec{name: name, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}, nil
	case UTF16BE:
		return codec{name: name, enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}, nil
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return codec{name: name, enc: enc}, nil
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return codec{name: name, enc: enc}, nil
	}
	return codec{}, errors.Errorf("unsupported encoding %q", name)
}

// Known reports whether name resolves to a decoder.
func Known(name string) bool {
	_, err := lookup(name)
	return err == nil
}

// Decode strictly decodes raw. Any byte sequence that is invalid under the
// named encoding is an error.
func Decode(raw []byte, name string) (string, error) {
	c, err := lookup(name)
	if err != nil {
		return "", err
	}
	if c.enc == nil {
		if !utf8.Valid(raw) {
			return "", errors.Errorf("invalid %s input", c.name)
		}
		return string(raw), nil
	}
	if c.valid != nil && !c.valid(raw) {
		return "", errors.Errorf("invalid %s input", c.name)
	}
	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrapf(err, "decode %s", c.name)
	}
	// x/text decoders substitute U+FFFD for malformed input instead of
	// failing, so a replacement rune only counts when it round-trips.
	if bytes.ContainsRune(out, utf8.RuneError) {
		back, err := c.enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, raw) {
			return "", errors.Errorf("invalid %s input", c.name)
		}
	}
	return string(out), nil
}

// Replace decodes raw, substituting U+FFFD for malformed sequences. It only
// fails when name does not resolve to a decoder.
func Replace(raw []byte, name string) (string, error) {
	c, err := lookup(name)
	if err != nil {
		return "", err
	}
	if c.enc == nil {
		return decodeUTF8(raw, true), nil
	}
	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return decodeUTF8(raw, true), nil
	}
	return string(out), nil
}

// DropInvalidUTF8 decodes raw as UTF-8, discarding malformed bytes.
func DropInvalidUTF8(raw []byte) string {
	return decodeUTF8(raw, false)
}

func decodeUTF8(raw []byte, replace bool) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			if replace {
				b.WriteRune(utf8.RuneError)
			}
		} else {
			b.Write(raw[:size])
		}
		raw = raw[size:]
	}
	return b.String()
}

// validGB2312 accepts ASCII plus EUC-CN double-byte sequences.
func validGB2312(raw []byte) bool {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < 0x80 {
			continue
		}
		if c < 0xa1 || c > 0xf7 || i+1 >= len(raw) {
			return false
		}
		t := raw[i+1]
		if t < 0xa1 || t > 0xfe {
			return false
		}
		i++
	}
	return true
}
