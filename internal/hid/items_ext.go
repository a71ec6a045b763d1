package hid

// Additional Main item flag bits beyond the basic Data/Const/Var/Array/Abs/Rel
// pairs in items.go: Null State lets a field value outside its logical range
// mean "no data", used by the gamepad hat switch's neutral (8) value.
const (
	MainNullState = 0x40
)
