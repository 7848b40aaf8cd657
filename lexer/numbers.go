package lexer

import "strconv"

func parseInt(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}
