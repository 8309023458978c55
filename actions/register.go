package actions

import "github.com/arolang/aro/registry"

// RegisterDefaults installs every built-in Action (spec §4.2) into r. Callers
// typically run this once at engine start-up against a fresh registry.New().
func RegisterDefaults(r *registry.Registry) error {
	defaults := []registry.Action{
		ComputeAction{},
		ValidateAction{},
		CompareAction{},
		TransformAction{},
		ExtractAction{},
		CreateAction{},
		UpdateAction{},
		DeleteAction{},
		MergeAction{},
		SortAction{},
		AcceptAction{},
		CreateDirectoryAction{},
		CopyAction{},
		MoveAction{},
		WriteAction{},
		AppendAction{},
		LogAction{},
		ReturnAction{},
		PublishAction{},
		BroadcastAction{},
		IncludeAction{},
	}
	for _, a := range defaults {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}
