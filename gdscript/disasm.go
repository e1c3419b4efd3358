package gdscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// classify assigns a token's tag to a Kind family. Tag values are shared
// across the 3.x/4.x token set this package targets (see tokenNames);
// positions are lifted directly from the GDScriptTokenizerOld::Token enum.
func classify(tag uint32) Kind {
	switch {
	case tag == 0:
		return KindEmpty
	case tag == 1:
		return KindIdentifier
	case tag == 2:
		return KindConstant
	case tag == 3:
		return KindSelf
	case tag == 4:
		return KindBuiltinType
	case tag == 5:
		return KindBuiltinFunc
	case tag >= 6 && tag <= 37:
		return KindOperator
	case tag >= 38 && tag <= 75:
		return KindKeyword
	case tag >= 76 && tag <= 88:
		return KindPunctuation
	case tag == 89:
		return KindNewline
	case tag >= 90 && tag <= 94:
		return KindConstantLiteral
	case tag == 95:
		return KindError
	case tag == 96:
		return KindEOF
	default:
		return KindCursor
	}
}

// noSpaceBefore holds punctuation that never gets a leading space when
// reconstructing source text (closing delimiters, statement separators).
var noSpaceBefore = map[uint32]bool{
	82: true, // ,
	83: true, // ;
	84: true, // .
	77: true, // ]
	79: true, // }
	81: true, // )
	86: true, // :
}

var noSpaceAfter = map[uint32]bool{
	76: true, // [
	78: true, // {
	80: true, // (
	84: true, // .
	87: true, // $
}

// Disassemble renders b's token stream as best-effort GDScript source: a
// linear walk that joins identifiers, constants, keywords and operators
// with single spaces, special-cases punctuation spacing, and indents each
// line with as many tabs as the preceding Newline token's payload value;
// the payload is not split into separate space and tab counts. This is
// not a parser — it reconstructs the token-level text the compiler saw,
// not a re-derived AST, matching the "decompilation is stateful... token
// stream is consumed linearly" design (§4.8).
func Disassemble(b *Bytecode, rev *Revision) (string, error) {
	var sb strings.Builder
	indent := 0
	atLineStart := true
	needSpace := false

	for i, tok := range b.Tokens {
		kind := classify(tok.Tag)
		switch kind {
		case KindEOF:
			sb.WriteString("\n")
			return sb.String(), nil
		case KindNewline:
			sb.WriteString("\n")
			indent = int(tok.Payload)
			atLineStart = true
			needSpace = false
			continue
		case KindError:
			return "", gdreerr.New(gdreerr.CorruptData, fmt.Sprintf("error token at index %d in bytecode stream", i))
		}

		if atLineStart {
			sb.WriteString(strings.Repeat("\t", indent))
			atLineStart = false
			needSpace = false
		}

		text, err := tokenText(tok, kind, b, rev)
		if err != nil {
			return "", err
		}

		if needSpace && !noSpaceBefore[tok.Tag] {
			sb.WriteString(" ")
		}
		sb.WriteString(text)
		needSpace = !noSpaceAfter[tok.Tag]
	}
	return sb.String(), nil
}

func tokenText(tok Token, kind Kind, b *Bytecode, rev *Revision) (string, error) {
	switch kind {
	case KindIdentifier:
		if int(tok.Payload) >= len(b.Identifiers) {
			return "", gdreerr.New(gdreerr.CorruptData, "identifier index out of range")
		}
		return b.Identifiers[tok.Payload], nil
	case KindConstant:
		if int(tok.Payload) >= len(b.Constants) {
			return "", gdreerr.New(gdreerr.CorruptData, "constant index out of range")
		}
		return formatConstant(b.Constants[tok.Payload]), nil
	case KindBuiltinType:
		if rev == nil {
			return "", gdreerr.New(gdreerr.UnknownRevision, "built-in type token requires a selected revision")
		}
		if name := rev.BuiltinType(tok.Payload); name != "" {
			return name, nil
		}
		return "", gdreerr.New(gdreerr.UnknownRevision, "built-in type index not in this revision's table")
	case KindBuiltinFunc:
		if rev == nil {
			return "", gdreerr.New(gdreerr.UnknownRevision, "built-in func token requires a selected revision")
		}
		if fn, ok := rev.BuiltinFunc(tok.Payload); ok {
			return fn.Name, nil
		}
		return "", gdreerr.New(gdreerr.UnknownRevision, "built-in func index not in this revision's table")
	case KindSelf:
		return "self", nil
	default:
		return tokenName(tok.Tag), nil
	}
}

func formatConstant(v variant.Variant) string {
	switch v.Kind {
	case variant.KindString, variant.KindStringName:
		return strconv.Quote(v.Value.(string))
	case variant.KindNil:
		return "null"
	default:
		return fmt.Sprintf("%v", v.Value)
	}
}
