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

// Opcode is a SPIR-V instruction opcode, numbered as in the SPIR-V
// specification.
type Opcode uint16

const (
    OpNop                 Opcode = 0
    OpUndef               Opcode = 1
    OpName                Opcode = 5
    OpExtInstImport       Opcode = 11
    OpMemoryModel         Opcode = 14
    OpEntryPoint          Opcode = 15
    OpExecutionMode       Opcode = 16
    OpCapability          Opcode = 17
    OpTypeVoid            Opcode = 19
    OpTypeBool            Opcode = 20
    OpTypeInt             Opcode = 21
    OpTypeFloat           Opcode = 22
    OpTypeVector          Opcode = 23
    OpTypeArray           Opcode = 28
    OpTypePointer         Opcode = 32
    OpTypeFunction        Opcode = 33
    OpConstantTrue        Opcode = 41
    OpConstantFalse       Opcode = 42
    OpConstant            Opcode = 43
    OpConstantComposite   Opcode = 44
    OpFunction            Opcode = 54
    OpFunctionParameter   Opcode = 55
    OpFunctionEnd         Opcode = 56
    OpFunctionCall        Opcode = 57
    OpVariable            Opcode = 59
    OpLoad                Opcode = 61
    OpStore               Opcode = 62
    OpAccessChain         Opcode = 65
    OpDecorate            Opcode = 71
    OpCompositeExtract    Opcode = 81
    OpCompositeInsert     Opcode = 82
    OpCopyObject          Opcode = 83
    OpConvertFToS         Opcode = 110
    OpConvertSToF         Opcode = 111
    OpBitcast             Opcode = 124
    OpSNegate             Opcode = 126
    OpFNegate             Opcode = 127
    OpIAdd                Opcode = 128
    OpFAdd                Opcode = 129
    OpISub                Opcode = 130
    OpFSub                Opcode = 131
    OpIMul                Opcode = 132
    OpFMul                Opcode = 133
    OpUDiv                Opcode = 134
    OpSDiv                Opcode = 135
    OpUMod                Opcode = 137
    OpSRem                Opcode = 138
    OpSMod                Opcode = 139
    OpIEqual              Opcode = 170
    OpINotEqual           Opcode = 171
    OpUGreaterThan        Opcode = 172
    OpSGreaterThan        Opcode = 173
    OpUGreaterThanEqual   Opcode = 174
    OpSGreaterThanEqual   Opcode = 175
    OpULessThan           Opcode = 176
    OpSLessThan           Opcode = 177
    OpULessThanEqual      Opcode = 178
    OpSLessThanEqual      Opcode = 179
    OpPhi                 Opcode = 245
    OpLoopMerge           Opcode = 246
    OpSelectionMerge      Opcode = 247
    OpLabel               Opcode = 248
    OpBranch              Opcode = 249
    OpBranchConditional   Opcode = 250
    OpSwitch              Opcode = 251
    OpKill                Opcode = 252
    OpReturn              Opcode = 253
    OpReturnValue         Opcode = 254
    OpUnreachable         Opcode = 255
)

var _OpNames = map[Opcode]string {
    OpNop               : "OpNop",
    OpUndef             : "OpUndef",
    OpName              : "OpName",
    OpTypeVoid          : "OpTypeVoid",
    OpTypeBool          : "OpTypeBool",
    OpTypeInt           : "OpTypeInt",
    OpTypeFloat         : "OpTypeFloat",
    OpTypeVector        : "OpTypeVector",
    OpTypeArray         : "OpTypeArray",
    OpTypePointer       : "OpTypePointer",
    OpTypeFunction      : "OpTypeFunction",
    OpConstant          : "OpConstant",
    OpFunction          : "OpFunction",
    OpFunctionEnd       : "OpFunctionEnd",
    OpFunctionCall      : "OpFunctionCall",
    OpVariable          : "OpVariable",
    OpLoad              : "OpLoad",
    OpStore             : "OpStore",
    OpAccessChain       : "OpAccessChain",
    OpCompositeExtract  : "OpCompositeExtract",
    OpCompositeInsert   : "OpCompositeInsert",
    OpCopyObject        : "OpCopyObject",
    OpConvertFToS       : "OpConvertFToS",
    OpSNegate           : "OpSNegate",
    OpIAdd              : "OpIAdd",
    OpISub              : "OpISub",
    OpIMul              : "OpIMul",
    OpSDiv              : "OpSDiv",
    OpSLessThan         : "OpSLessThan",
    OpPhi               : "OpPhi",
    OpLoopMerge         : "OpLoopMerge",
    OpSelectionMerge    : "OpSelectionMerge",
    OpLabel             : "OpLabel",
    OpBranch            : "OpBranch",
    OpBranchConditional : "OpBranchConditional",
    OpSwitch            : "OpSwitch",
    OpReturn            : "OpReturn",
    OpReturnValue       : "OpReturnValue",
    OpUnreachable       : "OpUnreachable",
}

func (self Opcode) String() string {
    if n, ok := _OpNames[self]; ok {
        return n
    } else {
        return fmt.Sprintf("Op(%d)", uint16(self))
    }
}

// IsTerminator reports whether the opcode ends a basic block.
func (self Opcode) IsTerminator() bool {
    switch self {
        case OpBranch            : fallthrough
        case OpBranchConditional : fallthrough
        case OpSwitch            : fallthrough
        case OpKill              : fallthrough
        case OpReturn            : fallthrough
        case OpReturnValue       : fallthrough
        case OpUnreachable       : return true
        default                  : return false
    }
}

// IsPure reports whether the opcode has no side effects beyond
// producing its result.
func (self Opcode) IsPure() bool {
    switch self {
        case OpSNegate           : fallthrough
        case OpIAdd              : fallthrough
        case OpISub              : fallthrough
        case OpIMul              : fallthrough
        case OpSDiv              : fallthrough
        case OpUDiv              : fallthrough
        case OpUMod              : fallthrough
        case OpSRem              : fallthrough
        case OpSMod              : fallthrough
        case OpIEqual            : fallthrough
        case OpINotEqual         : fallthrough
        case OpULessThan         : fallthrough
        case OpSLessThan         : fallthrough
        case OpUGreaterThan      : fallthrough
        case OpSGreaterThan      : fallthrough
        case OpAccessChain       : fallthrough
        case OpCompositeExtract  : fallthrough
        case OpCopyObject        : return true
        default                  : return false
    }
}

// StorageClass is a SPIR-V storage class literal.
type StorageClass uint32

const (
    StorageUniformConstant StorageClass = 0
    StorageInput           StorageClass = 1
    StorageUniform         StorageClass = 2
    StorageOutput          StorageClass = 3
    StorageWorkgroup       StorageClass = 4
    StoragePrivate         StorageClass = 6
    StorageFunction        StorageClass = 7
)
