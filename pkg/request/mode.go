package request

// Controller and action the logout trigger word maps to.
const (
	logoutController = "session"
	logoutAction     = "logout"
)

// ResolveMode classifies a request. Rules are checked in order, first match wins:
//
//  1. first segment is the resource trigger word: Resource
//  2. first segment is the action trigger word: Action, target from the remaining segments
//  3. first segment is the logout trigger word: Action, session/logout
//  4. the POST action parameter splits into at least one segment: Action, target from it
//  5. the control-panel flag is set: ControlPanel
//  6. otherwise: Site
//
// The returned bool reports whether the ActionTarget is set, which is the case
// exactly when the mode is ModeAction.
func ResolveMode(in Incoming, segments []string, cfg Config) (Mode, ActionTarget, bool) {
	var first string
	if len(segments) > 0 {
		first = segments[0]
	}

	switch {
	case matchesTrigger(first, cfg.ResourceTriggerWord):
		return ModeResource, ActionTarget{}, false

	case matchesTrigger(first, cfg.ActionTriggerWord):
		return ModeAction, ParseActionTarget(segments[1:]), true

	case matchesTrigger(first, cfg.LogoutTriggerWord):
		return ModeAction, ActionTarget{Controller: logoutController, Action: logoutAction}, true
	}

	if cfg.ActionTriggerWord != "" && in.Post != nil {
		if segs := SplitPath(in.Post.Get(cfg.ActionTriggerWord)); len(segs) > 0 {
			return ModeAction, ParseActionTarget(segs), true
		}
	}

	if in.ControlPanel {
		return ModeControlPanel, ActionTarget{}, false
	}

	return ModeSite, ActionTarget{}, false
}

// matchesTrigger reports whether seg equals a configured trigger word.
// An unset trigger word never matches.
func matchesTrigger(seg, trigger string) bool {
	return trigger != "" && seg == trigger
}

// ParseActionTarget derives an ActionTarget from action segments.
// "plugin/<name>/<controller>/<action>" is plugin-scoped; anything else is
// "<controller>/<action>". Missing controller and action fall back to
// DefaultController and DefaultAction.
func ParseActionTarget(segs []string) ActionTarget {
	var t ActionTarget
	i := 0

	if len(segs) > 0 && segs[0] == "plugin" {
		t.PluginScoped = true
		if len(segs) > 1 {
			t.Plugin = segs[1]
		}
		i = 2
	}

	t.Controller = DefaultController
	if len(segs) > i {
		t.Controller = segs[i]
	}

	t.Action = DefaultAction
	if len(segs) > i+1 {
		t.Action = segs[i+1]
	}

	return t
}
