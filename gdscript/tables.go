package gdscript

// Kind classifies a token tag into the families the disassembler and the
// per-revision builtin tables need to distinguish, per §4.8. Grounded on
// the GDScriptTokenizerOld::Token enum in editor/gdscript_tokenizer_old.h;
// tag values differ across bytecode revisions but the family a given tag
// belongs to is stable, which is what Kind records.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindIdentifier
	KindConstant
	KindSelf
	KindBuiltinType
	KindBuiltinFunc
	KindOperator
	KindKeyword
	KindPunctuation
	KindNewline
	KindConstantLiteral // PI, TAU, INF, NAN, _ (wildcard)
	KindError
	KindEOF
	KindCursor
)

// tokenNames mirrors GDScriptTokenizerOld::token_names: a display label for
// every tag, indexed by the tag value the 3.x/4.x tokenizer emits. Earlier
// (pre-3.0) revisions use a prefix of this same table; classify in
// disasm.go is what actually resolves a given bytecode's tag to a Kind, so
// this table exists purely for human-readable disassembly output.
var tokenNames = []string{
	"", "identifier", "constant", "self",
	"built-in type", "built-in func",
	"in", "==", "!=", "<", "<=", ">", ">=", "and", "or", "not",
	"+", "-", "*", "/", "%", "<<", ">>",
	"=", "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "|=", "^=",
	"&", "|", "^", "~",
	"if", "elif", "else", "for", "while", "break", "continue", "pass", "return", "match",
	"func", "class", "class_name", "extends", "is", "onready", "tool", "static",
	"export", "setget", "const", "var", "as", "void", "enum", "preload", "assert",
	"yield", "signal", "breakpoint", "rpc", "sync", "master", "puppet", "slave",
	"remotesync", "mastersync", "puppetsync",
	"[", "]", "{", "}", "(", ")", ",", ";", ".", "?", ":", "$", "->", "\n",
	"PI", "TAU", "_", "INF", "NAN",
	"<error>", "<eof>", "<cursor>",
}

func tokenName(tag uint32) string {
	if int(tag) < len(tokenNames) {
		return tokenNames[tag]
	}
	return "<unknown>"
}

// BuiltinFunc is one entry of the builtin-function argument-count table:
// a GDScript global function name plus the [min,max] argument range the
// compiler accepted for it. Grounded verbatim on the
// builtin_func_arg_elements table in bytecode/bytecode_base.cpp.
type BuiltinFunc struct {
	Name string
	Min  int
	Max  int
}

const maxArgs = 1<<31 - 1

// builtinFuncsV3 is the 3.x/4.x-era global function table. V2-era
// revisions register a shorter prefix of this set (see revision.go).
var builtinFuncsV3 = []BuiltinFunc{
	{"sin", 1, 1}, {"cos", 1, 1}, {"tan", 1, 1},
	{"sinh", 1, 1}, {"cosh", 1, 1}, {"tanh", 1, 1},
	{"asin", 1, 1}, {"acos", 1, 1}, {"atan", 1, 1}, {"atan2", 2, 2},
	{"sqrt", 1, 1}, {"fmod", 2, 2}, {"fposmod", 2, 2}, {"posmod", 2, 2},
	{"floor", 1, 1}, {"ceil", 1, 1}, {"round", 1, 1}, {"abs", 1, 1}, {"sign", 1, 1},
	{"pow", 2, 2}, {"log", 1, 1}, {"exp", 1, 1},
	{"is_nan", 1, 1}, {"is_inf", 1, 1}, {"is_equal_approx", 2, 2}, {"is_zero_approx", 1, 1},
	{"ease", 2, 2}, {"decimals", 1, 1}, {"step_decimals", 1, 1}, {"stepify", 2, 2},
	{"lerp", 3, 3}, {"lerp_angle", 3, 3}, {"inverse_lerp", 3, 3}, {"range_lerp", 5, 5},
	{"smoothstep", 3, 3}, {"move_toward", 3, 3}, {"dectime", 3, 3},
	{"randomize", 0, 0}, {"randi", 0, 0}, {"randf", 0, 0}, {"rand_range", 2, 2},
	{"seed", 1, 1}, {"rand_seed", 1, 1},
	{"deg2rad", 1, 1}, {"rad2deg", 1, 1}, {"linear2db", 1, 1}, {"db2linear", 1, 1},
	{"polar2cartesian", 2, 2}, {"cartesian2polar", 2, 2},
	{"wrapi", 3, 3}, {"wrapf", 3, 3},
	{"max", 2, 2}, {"min", 2, 2}, {"clamp", 3, 3}, {"nearest_po2", 1, 1},
	{"weakref", 1, 1}, {"funcref", 2, 2}, {"convert", 2, 2},
	{"typeof", 1, 1}, {"type_exists", 1, 1},
	{"char", 1, 1}, {"ord", 1, 1}, {"str", 1, maxArgs},
	{"print", 0, maxArgs}, {"printt", 0, maxArgs}, {"prints", 0, maxArgs},
	{"printerr", 0, maxArgs}, {"printraw", 0, maxArgs}, {"print_debug", 0, maxArgs},
	{"push_error", 1, 1}, {"push_warning", 1, 1},
	{"var2str", 1, 1}, {"str2var", 1, 1},
	{"var2bytes", 1, 1}, {"bytes2var", 1, 1},
	{"range", 1, 3}, {"load", 1, 1},
	{"inst2dict", 1, 1}, {"dict2inst", 1, 1},
	{"validate_json", 1, 1}, {"parse_json", 1, 1}, {"to_json", 1, 1},
	{"hash", 1, 1}, {"Color8", 3, 3}, {"ColorN", 1, 2},
	{"print_stack", 0, 0}, {"get_stack", 0, 0},
	{"instance_from_id", 1, 1}, {"len", 1, 1}, {"is_instance_valid", 1, 1},
	{"deep_equal", 2, 2}, {"get_inst", 1, 1},
}

// builtinTypesV3 names the Variant::Type values a 3.x/4.x BUILT_IN_TYPE
// token's payload indexes into, in declaration order.
var builtinTypesV3 = []string{
	"Nil", "bool", "int", "float", "String",
	"Vector2", "Rect2", "Vector3", "Transform2D", "Plane", "Quat", "AABB", "Basis", "Transform",
	"Color", "NodePath", "RID", "Object", "Dictionary", "Array",
	"PackedByteArray", "PackedInt32Array", "PackedFloat32Array", "PackedStringArray",
	"PackedVector2Array", "PackedVector3Array", "PackedColorArray",
}
