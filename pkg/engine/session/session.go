// Package session 实现课表手工编辑的会话校验
package session

import (
	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// Edit 一次手工编辑：替换或移除恰好一条分配
// 替换时 Assignment 非空（ID不存在则视为重新加入）；移除时只给 RemoveID
type Edit struct {
	BaseVersion int64             `json:"base_version"`
	Assignment  *model.Assignment `json:"assignment,omitempty"`
	RemoveID    uuid.UUID         `json:"remove_id,omitempty"`
}

// Delta 一次编辑引起的冲突变化
// 调用方自行把增量合并进本地状态，避免整表重新渲染
type Delta struct {
	Added   []model.Conflict `json:"added"`
	Removed []model.Conflict `json:"removed"`
}

// Validator 会话校验器
// 编辑基于乐观并发控制：基准版本不匹配立即拒绝，绝不静默覆盖
type Validator struct {
	catalog *model.Catalog
	det     *detector.Detector
}

// New 创建会话校验器
func New(catalog *model.Catalog) *Validator {
	return &Validator{
		catalog: catalog,
		det:     detector.NewDetector(catalog),
	}
}

// ApplyEdit 应用编辑
// 返回版本号加一的新结果集和冲突增量；检测只扫描编辑触及的
// (教师,日)/(教室,日) 资源键，结果与全量扫描在这些资源上完全一致
func (v *Validator) ApplyEdit(set *model.TimetableSet, edit Edit) (*model.TimetableSet, *Delta, error) {
	if edit.BaseVersion != set.Version {
		return nil, nil, errors.StaleEdit(edit.BaseVersion, set.Version)
	}
	if edit.Assignment == nil && edit.RemoveID == uuid.Nil {
		return nil, nil, errors.InvalidInput("assignment", "编辑必须指定替换或移除目标")
	}

	newSet := set.Clone()
	keys := make(map[constraint.ResourceKey]bool)

	if edit.Assignment != nil {
		if old := newSet.FindAssignment(edit.Assignment.ID); old != nil {
			markKeys(keys, old)
		}
		replacement := edit.Assignment.Clone()
		if !newSet.ReplaceAssignment(replacement) {
			newSet.Assignments = append(newSet.Assignments, replacement)
		}
		markKeys(keys, replacement)
	} else {
		old := newSet.FindAssignment(edit.RemoveID)
		if old == nil {
			return nil, nil, errors.NotFound("分配", edit.RemoveID.String())
		}
		markKeys(keys, old)
		newSet.RemoveAssignment(edit.RemoveID)
	}

	afterScoped := v.det.DetectScoped(newSet.Assignments, keys)
	beforeScoped := v.scopedConflicts(set, keys)

	delta := &Delta{}
	afterIDs := conflictIDSet(afterScoped)
	beforeAll := conflictIDSet(set.Conflicts)

	for _, c := range beforeScoped {
		if !afterIDs[c.ID] {
			delta.Removed = append(delta.Removed, c)
		}
	}
	for _, c := range afterScoped {
		if !beforeAll[c.ID] {
			delta.Added = append(delta.Added, c)
		}
	}

	// 合并：保留未触及的冲突，限定范围内以新扫描结果为准
	removedIDs := conflictIDSet(delta.Removed)
	var merged []model.Conflict
	for _, c := range set.Conflicts {
		if !removedIDs[c.ID] {
			merged = append(merged, c)
		}
	}
	merged = append(merged, delta.Added...)
	model.SortConflicts(merged)

	newSet.Conflicts = merged
	newSet.Version = set.Version + 1
	return newSet, delta, nil
}

// markKeys 记录分配触及的资源键
func markKeys(keys map[constraint.ResourceKey]bool, a *model.Assignment) {
	keys[constraint.ResourceKey{Resource: a.FacultyID, Day: a.Slot.Day}] = true
	keys[constraint.ResourceKey{Resource: a.RoomID, Day: a.Slot.Day}] = true
}

// scopedConflicts 旧冲突中涉及限定资源的子集
func (v *Validator) scopedConflicts(set *model.TimetableSet, keys map[constraint.ResourceKey]bool) []model.Conflict {
	var out []model.Conflict
	for _, c := range set.Conflicts {
		for _, id := range c.AssignmentIDs {
			a := set.FindAssignment(id)
			if a == nil {
				continue
			}
			if keys[constraint.ResourceKey{Resource: a.FacultyID, Day: a.Slot.Day}] ||
				keys[constraint.ResourceKey{Resource: a.RoomID, Day: a.Slot.Day}] {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// conflictIDSet 冲突ID集合
func conflictIDSet(conflicts []model.Conflict) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(conflicts))
	for _, c := range conflicts {
		out[c.ID] = true
	}
	return out
}
