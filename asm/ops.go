package asm

import "github.com/cocode-io/cocode/op"

// Stack manipulation

func Pop() Simple { return Simple{Code: op.PopTop} }
func Rot2() Simple { return Simple{Code: op.RotTwo} }
func Rot3() Simple { return Simple{Code: op.RotThree} }
func Dup() Simple { return Simple{Code: op.DupTop} }
func DupTwo() Simple { return Simple{Code: op.DupTopTwo} }
func Nop() Simple { return Simple{Code: op.Nop} }

// Unary and binary operators

func Positive() Simple { return Simple{Code: op.UnaryPositive} }
func Negate() Simple { return Simple{Code: op.UnaryNegative} }
func Not() Simple { return Simple{Code: op.UnaryNot} }
func Invert() Simple { return Simple{Code: op.UnaryInvert} }
func Power() Simple { return Simple{Code: op.BinaryPower} }
func Mult() Simple { return Simple{Code: op.BinaryMultiply} }
func Modulo() Simple { return Simple{Code: op.BinaryModulo} }
func Add() Simple { return Simple{Code: op.BinaryAdd} }
func Sub() Simple { return Simple{Code: op.BinarySubtract} }
func Subscr() Simple { return Simple{Code: op.BinarySubscr} }
func FloorDivide() Simple { return Simple{Code: op.BinaryFloorDivide} }
func Divide() Simple { return Simple{Code: op.BinaryTrueDivide} }

// Control flow

func Return() Simple { return Simple{Code: op.ReturnValue} }

// Yield suspends with the value on top of the stack. The value sent back on
// resumption takes its place.
func Yield() Simple { return Simple{Code: op.YieldValue} }

// Pool operands

func LoadConst(value any) Const { return Const{Code: op.LoadConst, Value: value} }
func LoadName(name string) Name { return Name{Code: op.LoadName, Name: name} }
func StoreName(name string) Name { return Name{Code: op.StoreName, Name: name} }
func DeleteName(name string) Name { return Name{Code: op.DeleteName, Name: name} }
func LoadGlobal(name string) Name { return Name{Code: op.LoadGlobal, Name: name} }
func StoreGlobal(name string) Name { return Name{Code: op.StoreGlobal, Name: name} }
func LoadAttr(name string) Name { return Name{Code: op.LoadAttr, Name: name} }
func StoreAttr(name string) Name { return Name{Code: op.StoreAttr, Name: name} }
func LoadFast(varname string) Fast { return Fast{Code: op.LoadFast, Name: varname} }
func StoreFast(varname string) Fast { return Fast{Code: op.StoreFast, Name: varname} }
func DeleteFast(varname string) Fast { return Fast{Code: op.DeleteFast, Name: varname} }

// Integer operands

// CallFunction calls a function with argc positional arguments and kwargc
// keyword argument pairs.
func CallFunction(argc, kwargc int) Arg {
	return Arg{Code: op.CallFunction, Arg: argc | kwargc<<8}
}

func CompareOp(cmp op.CompareOpType) Arg { return Arg{Code: op.CompareOp, Arg: int(cmp)} }
func BuildTuple(n int) Arg { return Arg{Code: op.BuildTuple, Arg: n} }
func BuildList(n int) Arg { return Arg{Code: op.BuildList, Arg: n} }

// Jumps

func JumpAbsolute(label string) Jump { return Jump{Code: op.JumpAbsolute, Label: label} }
func JumpForward(label string) Jump { return Jump{Code: op.JumpForward, Label: label} }
func PopJumpIfFalse(label string) Jump { return Jump{Code: op.PopJumpIfFalse, Label: label} }
func PopJumpIfTrue(label string) Jump { return Jump{Code: op.PopJumpIfTrue, Label: label} }
func JumpIfFalseOrPop(label string) Jump { return Jump{Code: op.JumpIfFalseOrPop, Label: label} }
func JumpIfTrueOrPop(label string) Jump { return Jump{Code: op.JumpIfTrueOrPop, Label: label} }
