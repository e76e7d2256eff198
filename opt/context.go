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

package opt

import (
    `github.com/iburinoc/SPIRV-Tools/spirv`
)

// Context owns a module under optimization and lazily builds the
// analyses the passes share. Invalidate it after any structural
// change to the module.
type Context struct {
    Module *spirv.Module
    defuse *DefUseManager
    doms   map[*spirv.Function]*DominatorAnalysis
    loops  map[*spirv.Function]*LoopDescriptor
}

func NewContext(m *spirv.Module) *Context {
    return &Context {
        Module : m,
        doms   : make(map[*spirv.Function]*DominatorAnalysis),
        loops  : make(map[*spirv.Function]*LoopDescriptor),
    }
}

// DefUse returns the module-wide def-use manager, building it on
// first request.
func (self *Context) DefUse() *DefUseManager {
    if self.defuse == nil {
        self.defuse = newDefUseManager(self.Module)
    }
    return self.defuse
}

// Dominators returns the dominator analysis for fn.
func (self *Context) Dominators(fn *spirv.Function) *DominatorAnalysis {
    if d, ok := self.doms[fn]; ok {
        return d
    }
    d := newDominatorAnalysis(fn)
    self.doms[fn] = d
    return d
}

// LoopDescriptor returns the natural loop nest of fn.
func (self *Context) LoopDescriptor(fn *spirv.Function) *LoopDescriptor {
    if ld, ok := self.loops[fn]; ok {
        return ld
    }
    ld := newLoopDescriptor(fn, self.Dominators(fn))
    self.loops[fn] = ld
    return ld
}

// Invalidate drops every cached analysis.
func (self *Context) Invalidate() {
    self.defuse = nil
    self.doms = make(map[*spirv.Function]*DominatorAnalysis)
    self.loops = make(map[*spirv.Function]*LoopDescriptor)
}
