// Package callbacks encodes inline button data as "<head>_<tail>" strings.
package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// MaxDataLen is the Bot API limit for callback_data in bytes.
const MaxDataLen = 64

const sep = "_"

// ErrDataTooLong is returned when encoded data exceeds MaxDataLen.
var ErrDataTooLong = errors.New("callbacks: data exceeds 64 bytes")

// Join encodes head and tail. The tail may itself contain separators.
func Join(head, tail string) (string, error) {
	data := head + sep + tail
	if len(data) > MaxDataLen {
		return "", ErrDataTooLong
	}
	return data, nil
}

// Split cuts data at the first separator. ok is false when there is none.
func Split(data string) (head, tail string, ok bool) {
	return strings.Cut(data, sep)
}

// Data returns the callback payload of c. Buttons registered with a telebot
// unique id come back as "unique|data"; plain buttons as their raw data.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	unique := strings.TrimSpace(cb.Unique)
	data := strings.TrimSpace(strings.TrimPrefix(cb.Data, "\f"))
	switch {
	case unique == "":
		return data
	case data == "":
		return unique
	default:
		return unique + "|" + data
	}
}
