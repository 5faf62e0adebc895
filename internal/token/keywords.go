package token

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, int(keywordEnd-keywordBegin))
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		keywords[kindStrings[k]] = k
	}
}

// LookupKeyword returns the keyword kind for ident, if any.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
