package lexer

// attrState is the attribute-list sub-machine state. The lexer enters
// attrBeforeName after the whitespace that ends a tag name.
type attrState int

const (
	attrBeforeName attrState = iota
	attrName
	attrAfterName
	attrBeforeValue
	attrValue
	attrQuoted
)

var attrStateNames = [...]string{
	attrBeforeName:  "BeforeName",
	attrName:        "Name",
	attrAfterName:   "AfterName",
	attrBeforeValue: "BeforeValue",
	attrValue:       "Value",
	attrQuoted:      "Quoted",
}

func (s attrState) String() string {
	if int(s) < len(attrStateNames) {
		return attrStateNames[s]
	}
	return "attrState(?)"
}

// attrAction tells the lexer what to do with the byte just consumed. Flags
// apply in order: assign, commit, then append, then close.
type attrAction uint8

const (
	// actCommit finishes the pending attribute.
	actCommit attrAction = 1 << iota
	// actName appends the byte to the attribute name.
	actName
	// actValue appends the byte to the attribute value.
	actValue
	// actClose ends the tag.
	actClose
	// actAssign marks the pending attribute as having seen '='. An assigned
	// attribute is committed even when its name is empty.
	actAssign

	actSkip attrAction = 0
)

// stepAttr is the attribute-list transition function. It has no side effects.
//
// Either quote character toggles quoted mode and is dropped from the value.
// Inside quotes whitespace is a value byte. '>' ends the tag in every state.
// A value may mix quoted and bare runs (a"b c"d is "ab cd").
func stepAttr(s attrState, c byte) (attrState, attrAction) {
	if c == '>' {
		if s == attrBeforeName {
			return attrBeforeName, actClose
		}
		return attrBeforeName, actCommit | actClose
	}

	switch s {
	case attrBeforeName:
		switch {
		case isSpace(c):
			return attrBeforeName, actSkip
		case c == '=':
			return attrBeforeValue, actAssign
		}
		return attrName, actName

	case attrName:
		switch {
		case isSpace(c):
			return attrAfterName, actSkip
		case c == '=':
			return attrBeforeValue, actAssign
		}
		return attrName, actName

	case attrAfterName:
		switch {
		case isSpace(c):
			return attrAfterName, actSkip
		case c == '=':
			return attrBeforeValue, actAssign
		}
		return attrName, actCommit | actName

	case attrBeforeValue:
		switch {
		case isSpace(c):
			return attrBeforeValue, actSkip
		case isQuote(c):
			return attrQuoted, actSkip
		}
		return attrValue, actValue

	case attrValue:
		switch {
		case isSpace(c):
			return attrBeforeName, actCommit
		case isQuote(c):
			return attrQuoted, actSkip
		}
		return attrValue, actValue

	case attrQuoted:
		if isQuote(c) {
			return attrValue, actSkip
		}
		return attrQuoted, actValue
	}
	return attrBeforeName, actSkip
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// isSpace matches the C locale isspace set.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
