package emu

import "github.com/sarchlab/arm7sim/insts"

// branch performs B and BL. R15 already points two instructions ahead, so
// the link register receives the address of the following instruction.
func (c *CPU) branch(i insts.Branch) Action {
	pc := c.reg(PC)
	if i.Link() {
		c.setReg(LR, pc-4)
	}
	c.branchTo(uint32(int32(pc) + i.Offset()))
	return PipelineFlush
}

// branchAndExchange performs BX: bit 0 of the target selects the
// instruction set and is cleared from the new PC.
func (c *CPU) branchAndExchange(rn uint8) Action {
	target := c.reg(rn)
	if target&1 == 1 {
		c.cpsr.SetState(StateThumb)
	} else {
		c.cpsr.SetState(StateARM)
	}
	c.branchTo(target &^ 1)
	return PipelineFlush
}

func (c *CPU) conditionalBranch(i insts.ConditionalBranch) (Action, bool) {
	// The reserved condition is the SWI format and never reaches here.
	if passed, err := CheckCondition(c.cpsr, i.Cond()); err != nil || !passed {
		return Advance(NonSequential), false
	}
	c.branchTo(uint32(int32(c.reg(PC)) + i.Offset()))
	return PipelineFlush, true
}

func (c *CPU) unconditionalBranch(i insts.UnconditionalBranch) Action {
	c.branchTo(uint32(int32(c.reg(PC)) + i.Offset()))
	return PipelineFlush
}

// longBranchWithLink executes one half of the Thumb BL pair. The first half
// parks the high part of the target in LR; the second adds the low part,
// jumps, and leaves the return address (with bit 0 set) in LR.
func (c *CPU) longBranchWithLink(i insts.LongBranchWithLink) Action {
	pc := c.reg(PC)
	if !i.Low() {
		high := int32(i.Offset()<<21) >> 9
		c.setReg(LR, uint32(int32(pc)+high))
		return Advance(Sequential)
	}

	target := c.reg(LR) + i.Offset()<<1
	c.setReg(LR, (pc-2)|1)
	c.branchTo(target)
	return PipelineFlush
}
