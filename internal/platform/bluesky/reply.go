package bluesky

import (
	"context"
	"fmt"

	"github.com/hmdqr/FastSM/internal/model"
)

// maxAncestorDepth bounds the parent walk on pathological threads.
const maxAncestorDepth = 50

// replyRefs resolves the root and parent refs a reply record needs.
// The parent is the post being replied to; the root is the top of its
// thread. When the ancestor chain has a missing link (deleted or
// blocked post) the walk stops and the last resolvable ancestor stands
// in as root, which keeps the reply attached to as much of the thread
// as is still visible.
func (a *Account) replyRefs(ctx context.Context, parentURI string) (*replyRefs, error) {
	resp, err := a.client.PostThread(ctx, parentURI, maxAncestorDepth)
	if err != nil {
		return nil, err
	}
	if resp.Thread == nil || resp.Thread.Post == nil {
		return nil, fmt.Errorf("reply parent not found: %s", parentURI)
	}

	parent := strongRef{URI: resp.Thread.Post.URI, CID: resp.Thread.Post.CID}
	root := parent
	node := resp.Thread.Parent
	for depth := 0; node != nil && depth < maxAncestorDepth; depth++ {
		if node.Post == nil {
			break
		}
		root = strongRef{URI: node.Post.URI, CID: node.Post.CID}
		node = node.Parent
	}
	return &replyRefs{Root: root, Parent: parent}, nil
}

// contextFromThread flattens a thread view into universal form.
// Ancestors are collected by walking the parent chain upward and
// inserting at the front, so they come out oldest first; descendants
// are the direct replies only.
func (a *Account) contextFromThread(thread *threadView) *model.Context {
	out := &model.Context{}
	if thread == nil {
		return out
	}

	node := thread.Parent
	for depth := 0; node != nil && depth < maxAncestorDepth; depth++ {
		if node.Post != nil {
			if st := postViewToStatus(node.Post); st != nil {
				out.Ancestors = append([]*model.Status{st}, out.Ancestors...)
				a.cache.AddUsersFromStatus(st)
				a.rememberRef(node.Post)
			}
		}
		node = node.Parent
	}

	for i := range thread.Replies {
		reply := &thread.Replies[i]
		if reply.Post == nil {
			continue
		}
		if st := postViewToStatus(reply.Post); st != nil {
			out.Descendants = append(out.Descendants, st)
			a.cache.AddUsersFromStatus(st)
			a.rememberRef(reply.Post)
		}
	}
	return out
}
