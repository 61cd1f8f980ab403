package extension

import (
	"git.home.luguber.info/inful/docmacro/internal/errors"
)

// Lifecycle phase names, used in hook error context and logs.
const (
	PhasePreRender  = "pre_render"
	PhasePostRender = "post_render"
	PhasePostBuild  = "post_build"
)

// Hook is one registered lifecycle callable, tagged with the module that
// contributed it so failures name their origin.
type Hook struct {
	Module string
	Fn     func(env *Env) error
}

// Pipeline holds the three ordered hook lists. Append-only during module
// loading, read-only afterwards; hooks run in registration order.
type Pipeline struct {
	preRender  []Hook
	postRender []Hook
	postBuild  []Hook
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddPreRender appends a pre-render hook.
func (p *Pipeline) AddPreRender(module string, fn func(env *Env) error) {
	p.preRender = append(p.preRender, Hook{Module: module, Fn: fn})
}

// AddPostRender appends a post-render hook.
func (p *Pipeline) AddPostRender(module string, fn func(env *Env) error) {
	p.postRender = append(p.postRender, Hook{Module: module, Fn: fn})
}

// AddPostBuild appends a post-build hook.
func (p *Pipeline) AddPostBuild(module string, fn func(env *Env) error) {
	p.postBuild = append(p.postBuild, Hook{Module: module, Fn: fn})
}

// RunPreRender invokes all pre-render hooks in order. The first failure
// aborts the run; hooks are not individually sandboxed.
func (p *Pipeline) RunPreRender(env *Env) error {
	return run(PhasePreRender, p.preRender, env)
}

// RunPostRender invokes all post-render hooks in order.
func (p *Pipeline) RunPostRender(env *Env) error {
	return run(PhasePostRender, p.postRender, env)
}

// RunPostBuild invokes all post-build hooks in order.
func (p *Pipeline) RunPostBuild(env *Env) error {
	return run(PhasePostBuild, p.postBuild, env)
}

// Counts reports the number of hooks per phase, for diagnostics.
func (p *Pipeline) Counts() (preRender, postRender, postBuild int) {
	return len(p.preRender), len(p.postRender), len(p.postBuild)
}

func run(phase string, hooks []Hook, env *Env) error {
	for _, h := range hooks {
		if err := h.Fn(env); err != nil {
			return errors.HookError(phase, h.Module, err)
		}
	}
	return nil
}
