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
    `strings`
)

// ID is a SPIR-V result identifier. The zero ID is never assigned.
type ID uint32

// Instruction is one decoded SPIR-V instruction. In holds the
// in-operands only: result type and result id are kept apart, the way
// the binary form separates them. Depending on the opcode an entry of
// In is either an ID or a literal word.
type Instruction struct {
    Op     Opcode
    Type   ID
    Result ID
    In     []ID
    blk    *BasicBlock
}

func (self *Instruction) NumOperands() int {
    return len(self.In)
}

func (self *Instruction) Operand(i int) ID {
    return self.In[i]
}

// Block returns the basic block holding this instruction, or nil for
// module-scope instructions.
func (self *Instruction) Block() *BasicBlock {
    return self.blk
}

// ConstantValue interprets the instruction as a 32-bit OpConstant and
// returns its value sign-extended to 64 bits.
func (self *Instruction) ConstantValue() int64 {
    if self.Op != OpConstant {
        panic("spirv: ConstantValue on non-constant: " + self.Op.String())
    } else {
        return int64(int32(self.In[0]))
    }
}

func (self *Instruction) String() string {
    var sb strings.Builder
    if self.Result != 0 {
        fmt.Fprintf(&sb, "%%%d = ", self.Result)
    }
    sb.WriteString(self.Op.String())
    if self.Type != 0 {
        fmt.Fprintf(&sb, " %%%d", self.Type)
    }
    for _, v := range self.In {
        fmt.Fprintf(&sb, " %%%d", v)
    }
    return sb.String()
}

// BasicBlock is a label and its straight-line instruction sequence.
// Phi instructions lead, the terminator is last.
type BasicBlock struct {
    Id  ID
    Ins []*Instruction
    fn  *Function
}

func (self *BasicBlock) Function() *Function {
    return self.fn
}

// Term returns the block terminator, or nil if the block is still
// under construction.
func (self *BasicBlock) Term() *Instruction {
    if n := len(self.Ins); n == 0 || !self.Ins[n - 1].Op.IsTerminator() {
        return nil
    } else {
        return self.Ins[n - 1]
    }
}

// Phis returns the leading OpPhi instructions.
func (self *BasicBlock) Phis() []*Instruction {
    for i, p := range self.Ins {
        if p.Op != OpPhi {
            return self.Ins[:i]
        }
    }
    return self.Ins
}

// Succs returns the label ids this block may branch to.
func (self *BasicBlock) Succs() []ID {
    t := self.Term()
    if t == nil {
        return nil
    }
    switch t.Op {
        case OpBranch            : return []ID { t.In[0] }
        case OpBranchConditional : return []ID { t.In[1], t.In[2] }
        case OpSwitch            : break
        default                  : return nil
    }

    /* OpSwitch: selector, default, then (literal, label) pairs */
    r := []ID { t.In[1] }
    for i := 2; i < len(t.In); i += 2 {
        r = append(r, t.In[i + 1])
    }
    return r
}

// Adopt claims p for this block without linking it into Ins. Callers
// rebuilding the instruction list wholesale use it to keep the
// back-pointers consistent.
func (self *BasicBlock) Adopt(p *Instruction) {
    p.blk = self
}

// Remove unlinks p from the block. It reports whether p was found.
func (self *BasicBlock) Remove(p *Instruction) bool {
    for i, q := range self.Ins {
        if q == p {
            self.Ins = append(self.Ins[:i], self.Ins[i + 1:]...)
            p.blk = nil
            return true
        }
    }
    return false
}

// AppendBeforeTerm links p into the block just before its terminator,
// or at the end if the block has none yet.
func (self *BasicBlock) AppendBeforeTerm(p *Instruction) {
    p.blk = self
    if self.Term() == nil {
        self.Ins = append(self.Ins, p)
        return
    }
    n := len(self.Ins)
    self.Ins = append(self.Ins, nil)
    copy(self.Ins[n:], self.Ins[n - 1:])
    self.Ins[n - 1] = p
}

// LoopMerge returns the OpLoopMerge instruction if this block is a
// structured loop header.
func (self *BasicBlock) LoopMerge() *Instruction {
    for _, p := range self.Ins {
        if p.Op == OpLoopMerge {
            return p
        }
    }
    return nil
}
