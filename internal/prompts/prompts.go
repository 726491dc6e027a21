// Package prompts maintains the pool of conversation-starter prompts offered
// to users when they record their introduction.
package prompts

import (
	"math/rand/v2"
	"sync"
)

// defaults is the built-in prompt pool, used until (and unless) an AI
// refresh replaces it.
var defaults = []string{
	"Pick up an object around you. What story connects you with it?",
	"Tell a story that made you feel wonder this week!",
	"What great new idea have you learned about recently?",
	"What's your favorite movie and why?",
	"What's your favorite way to spend a day off?",
	"What was the best vacation you ever took and why?",
	"Where's the next place on your travel bucket list and why?",
	"What are your hobbies, and how did you get into them?",
	"What was your favorite age growing up?",
	"What was the last thing you read?",
	"What's your favorite ice cream topping?",
	"What was the last TV show you binge-watched?",
	"Are you into podcasts or do you only listen to music?",
	"If you could only eat one food for the rest of your life, what would it be?",
	"What's your go-to guilty pleasure?",
	"In the summer, would you rather go to the beach or go camping?",
	"What's your favorite quote from a TV show/movie/book?",
	"How old were you when you had your first celebrity crush, and who was it?",
	"What's one thing that can instantly make your day better?",
}

// Pool serves random conversation starters and accepts wholesale
// replacements from the refresh task. Safe for concurrent use.
type Pool struct {
	mu      sync.RWMutex
	prompts []string
}

// NewPool creates a pool seeded with the built-in prompts.
func NewPool() *Pool {
	return &Pool{prompts: defaults}
}

// Random returns one prompt chosen uniformly at random.
func (p *Pool) Random() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prompts[rand.IntN(len(p.prompts))]
}

// Replace swaps in a new prompt set. Empty or nil input is ignored so a
// failed refresh can never empty the pool.
func (p *Pool) Replace(prompts []string) {
	filtered := make([]string, 0, len(prompts))
	for _, s := range prompts {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = filtered
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.prompts)
}
