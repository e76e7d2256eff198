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

type Function struct {
    Def    *Instruction
    Blocks []*BasicBlock
    index  map[ID]*BasicBlock
}

// Entry returns the function entry block.
func (self *Function) Entry() *BasicBlock {
    return self.Blocks[0]
}

// Block looks a block up by its label id.
func (self *Function) Block(id ID) *BasicBlock {
    if self.index == nil {
        self.reindex()
    }
    return self.index[id]
}

func (self *Function) reindex() {
    self.index = make(map[ID]*BasicBlock, len(self.Blocks))
    for _, bb := range self.Blocks {
        self.index[bb.Id] = bb
    }
}

// Module is an in-memory SPIR-V module: module-scope instructions
// (types, constants, global variables) followed by function bodies.
// Bound is one past the largest id ever assigned.
type Module struct {
    Globals   []*Instruction
    Functions []*Function
    Bound     ID
}

// TakeNextId hands out a fresh result id.
func (self *Module) TakeNextId() ID {
    r := self.Bound
    self.Bound++
    return r
}

// Global finds the module-scope instruction defining id, or nil.
func (self *Module) Global(id ID) *Instruction {
    for _, p := range self.Globals {
        if p.Result == id {
            return p
        }
    }
    return nil
}
