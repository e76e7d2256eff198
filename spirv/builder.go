/*
 * Copyright 2025 iburinoc
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package spirv

import (
    `fmt`
)

type _TypeKey struct {
    op Opcode
    a  uint32
    b  uint32
}

type _ConstKey struct {
    ty ID
    v  uint32
}

// Builder assembles a Module programmatically. Result ids may be
// reserved up front with NewId and filled in later with EmitTo, which
// is how back-edge values referenced by a Phi are constructed before
// their defining instruction exists.
type Builder struct {
    mod    *Module
    fn     *Function
    bb     *BasicBlock
    types  map[_TypeKey]ID
    consts map[_ConstKey]ID
}

func CreateBuilder() *Builder {
    return &Builder {
        mod    : &Module { Bound: 1 },
        types  : make(map[_TypeKey]ID),
        consts : make(map[_ConstKey]ID),
    }
}

func (self *Builder) Module() *Module {
    return self.mod
}

// NewId reserves a fresh result id.
func (self *Builder) NewId() ID {
    return self.mod.TakeNextId()
}

func (self *Builder) global(op Opcode, ty ID, args ...ID) ID {
    r := self.NewId()
    self.mod.Globals = append(self.mod.Globals, &Instruction { Op: op, Type: ty, Result: r, In: args })
    return r
}

func (self *Builder) typed(op Opcode, a uint32, b uint32, args ...ID) ID {
    k := _TypeKey { op: op, a: a, b: b }
    if r, ok := self.types[k]; ok {
        return r
    } else {
        r = self.global(op, 0, args...)
        self.types[k] = r
        return r
    }
}

func (self *Builder) TypeVoid() ID {
    return self.typed(OpTypeVoid, 0, 0)
}

func (self *Builder) TypeBool() ID {
    return self.typed(OpTypeBool, 0, 0)
}

func (self *Builder) TypeInt(width uint32, signed bool) ID {
    s := uint32(0)
    if signed {
        s = 1
    }
    return self.typed(OpTypeInt, width, s, ID(width), ID(s))
}

func (self *Builder) TypeFloat(width uint32) ID {
    return self.typed(OpTypeFloat, width, 0, ID(width))
}

func (self *Builder) TypePointer(sc StorageClass, pointee ID) ID {
    return self.typed(OpTypePointer, uint32(sc), uint32(pointee), ID(sc), pointee)
}

func (self *Builder) TypeArray(elem ID, length ID) ID {
    return self.typed(OpTypeArray, uint32(elem), uint32(length), elem, length)
}

// ConstantInt interns a 32-bit integer constant of the given type.
func (self *Builder) ConstantInt(ty ID, v int32) ID {
    k := _ConstKey { ty: ty, v: uint32(v) }
    if r, ok := self.consts[k]; ok {
        return r
    } else {
        r = self.global(OpConstant, ty, ID(uint32(v)))
        self.consts[k] = r
        return r
    }
}

// GlobalVariable emits a module-scope OpVariable.
func (self *Builder) GlobalVariable(ty ID, sc StorageClass) ID {
    return self.global(OpVariable, ty, ID(sc))
}

// NewFunction starts a function; subsequent blocks belong to it until
// the next NewFunction call.
func (self *Builder) NewFunction(ret ID) *Function {
    fd := &Instruction { Op: OpFunction, Type: ret, Result: self.NewId() }
    fn := &Function { Def: fd }
    self.mod.Functions = append(self.mod.Functions, fn)
    self.fn = fn
    self.bb = nil
    return fn
}

// NewBlock appends a block to the current function in layout order and
// makes it the emission target.
func (self *Builder) NewBlock() *BasicBlock {
    if self.fn == nil {
        panic("spirv: NewBlock outside a function")
    }
    bb := &BasicBlock { Id: self.NewId(), fn: self.fn }
    self.fn.Blocks = append(self.fn.Blocks, bb)
    self.fn.index = nil
    self.bb = bb
    return bb
}

// SetBlock redirects emission to bb.
func (self *Builder) SetBlock(bb *BasicBlock) {
    self.bb = bb
}

func (self *Builder) push(p *Instruction) *Instruction {
    if self.bb == nil {
        panic("spirv: instruction emitted outside a block")
    }
    p.blk = self.bb
    self.bb.Ins = append(self.bb.Ins, p)
    return p
}

// EmitTo emits an instruction with a caller-reserved result id.
func (self *Builder) EmitTo(res ID, op Opcode, ty ID, args ...ID) ID {
    self.push(&Instruction { Op: op, Type: ty, Result: res, In: args })
    return res
}

// Emit emits an instruction with a fresh result id.
func (self *Builder) Emit(op Opcode, ty ID, args ...ID) ID {
    return self.EmitTo(self.NewId(), op, ty, args...)
}

func (self *Builder) emitv(op Opcode, args ...ID) {
    self.push(&Instruction { Op: op, In: args })
}

func (self *Builder) LocalVariable(ty ID) ID {
    return self.Emit(OpVariable, ty, ID(StorageFunction))
}

func (self *Builder) Load(ty ID, ptr ID) ID {
    return self.Emit(OpLoad, ty, ptr)
}

func (self *Builder) Store(ptr ID, val ID) {
    self.emitv(OpStore, ptr, val)
}

func (self *Builder) AccessChain(ty ID, base ID, idx ...ID) ID {
    return self.Emit(OpAccessChain, ty, append([]ID { base }, idx...)...)
}

func (self *Builder) IAdd(ty ID, x ID, y ID) ID {
    return self.Emit(OpIAdd, ty, x, y)
}

func (self *Builder) ISub(ty ID, x ID, y ID) ID {
    return self.Emit(OpISub, ty, x, y)
}

func (self *Builder) IMul(ty ID, x ID, y ID) ID {
    return self.Emit(OpIMul, ty, x, y)
}

func (self *Builder) SNegate(ty ID, x ID) ID {
    return self.Emit(OpSNegate, ty, x)
}

func (self *Builder) SLessThan(x ID, y ID) ID {
    return self.Emit(OpSLessThan, self.TypeBool(), x, y)
}

// Phi emits an OpPhi from (value, predecessor) pairs.
func (self *Builder) Phi(ty ID, pairs ...ID) ID {
    if len(pairs) % 2 != 0 {
        panic(fmt.Sprintf("spirv: odd phi operand count: %d", len(pairs)))
    }
    return self.Emit(OpPhi, ty, pairs...)
}

func (self *Builder) LoopMerge(merge *BasicBlock, cont *BasicBlock) {
    self.emitv(OpLoopMerge, merge.Id, cont.Id, 0)
}

func (self *Builder) Branch(to *BasicBlock) {
    self.emitv(OpBranch, to.Id)
}

func (self *Builder) BranchCond(cond ID, t *BasicBlock, f *BasicBlock) {
    self.emitv(OpBranchConditional, cond, t.Id, f.Id)
}

func (self *Builder) Return() {
    self.emitv(OpReturn)
}
