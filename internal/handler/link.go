package handler

import "strings"

// FollowLinkID is the id under which FollowLink is usually registered.
const FollowLinkID = "follow_link"

// FollowLink navigates to the submitted value when it is a non-empty string.
// Renderers submit a panel link's target id as its value, so attaching this
// handler to a link widget makes the link open its target.
func FollowLink(_, _ map[string]any) Handler {
	return HandlerFunc(func(_ string, value any) (Instruction, error) {
		target, ok := value.(string)
		target = strings.TrimSpace(target)
		if !ok || target == "" {
			return nil, nil
		}
		return To(target), nil
	})
}
