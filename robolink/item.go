package robolink

import (
	"fmt"

	"github.com/RoboDK/RoboDK-API-sub002/robomath"
	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

// ItemType is the kind of an item in the host's station tree.
type ItemType int32

const (
	ItemTypeAny           ItemType = -1
	ItemTypeStation       ItemType = 1
	ItemTypeRobot         ItemType = 2
	ItemTypeFrame         ItemType = 3
	ItemTypeTool          ItemType = 4
	ItemTypeObject        ItemType = 5
	ItemTypeTarget        ItemType = 6
	ItemTypeProgram       ItemType = 8
	ItemTypeInstruction   ItemType = 9
	ItemTypeProgramPython ItemType = 10
	ItemTypeMachining     ItemType = 11
	ItemTypeBallbarValid  ItemType = 12
	ItemTypeCalibProject  ItemType = 13
	ItemTypeValidISO9283  ItemType = 14
	ItemTypeFolder        ItemType = 17
	ItemTypeRobotArm      ItemType = 18
	ItemTypeCamera        ItemType = 19
	ItemTypeGeneric       ItemType = 20
	ItemTypeRobotAxes     ItemType = 21
	ItemTypeNotes         ItemType = 22
)

var itemTypeNames = map[ItemType]string{
	ItemTypeAny:           "Any",
	ItemTypeStation:       "Station",
	ItemTypeRobot:         "Robot",
	ItemTypeFrame:         "Frame",
	ItemTypeTool:          "Tool",
	ItemTypeObject:        "Object",
	ItemTypeTarget:        "Target",
	ItemTypeProgram:       "Program",
	ItemTypeInstruction:   "Instruction",
	ItemTypeProgramPython: "ProgramPython",
	ItemTypeMachining:     "Machining",
	ItemTypeBallbarValid:  "BallbarValidation",
	ItemTypeCalibProject:  "CalibrationProject",
	ItemTypeValidISO9283:  "ValidationISO9283",
	ItemTypeFolder:        "Folder",
	ItemTypeRobotArm:      "RobotArm",
	ItemTypeCamera:        "Camera",
	ItemTypeGeneric:       "Generic",
	ItemTypeRobotAxes:     "RobotAxes",
	ItemTypeNotes:         "Notes",
}

func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ItemType(%d)", int32(t))
}

// Item is a reference to an object in the host's station tree.
//
// It only remembers the handle and the kind reported when it was obtained. The host owns
// the object: once it is deleted, commands on the Item fail with ErrInvalidItem.
// The zero Item is the null reference, accepted wherever a parameter is optional.
type Item struct {
	s   *Session
	ref wire.ItemRef
}

func newItem(s *Session, ref wire.ItemRef) Item {
	if ref.IsNull() {
		return Item{}
	}

	return Item{s: s, ref: ref}
}

// Handle returns the host-side handle.
func (it Item) Handle() uint64 {
	return it.ref.Handle
}

// Kind returns the item type cached when the Item was obtained.
func (it Item) Kind() ItemType {
	return ItemType(it.ref.Kind)
}

// Valid reports whether the item is non-null. It does not ask the host.
func (it Item) Valid() bool {
	return !it.ref.IsNull()
}

// Session returns the session the item was obtained from.
func (it Item) Session() *Session {
	return it.s
}

func (it Item) String() string {
	if !it.Valid() {
		return "Item(null)"
	}

	return fmt.Sprintf("Item(%s, 0x%x)", it.Kind(), it.ref.Handle)
}

// ProgramInstruction describes one instruction of a program item.
type ProgramInstruction struct {
	Name          string
	Type          int
	MoveType      int
	IsJointTarget bool
	Pose          *robomath.Mat
	Joints        []float64
}

// HostVersion identifies the running host application.
type HostVersion struct {
	App       string
	Bits      int
	Version   string
	BuildDate string
}

// Target is the destination of a move: an item, a joint vector or a pose.
// Build it with TargetItem, TargetJoints or TargetPose.
type Target struct {
	kind   int32
	item   Item
	joints []float64
	pose   *robomath.Mat
}

const (
	targetJoints = 1
	targetPose   = 2
	targetItem   = 3
)

// TargetItem moves to a target item.
func TargetItem(it Item) Target {
	return Target{kind: targetItem, item: it}
}

// TargetJoints moves to a joint vector.
func TargetJoints(joints []float64) Target {
	return Target{kind: targetJoints, joints: joints}
}

// TargetPose moves to a pose of the active tool with respect to the active frame.
func TargetPose(pose *robomath.Mat) Target {
	return Target{kind: targetPose, pose: pose}
}

func (t Target) validate(s *Session) error {
	switch t.kind {
	case targetItem:
		if !t.item.Valid() {
			return invalidArgument("move target item is null")
		}
		return s.checkItem(t.item)
	case targetJoints:
		if len(t.joints) == 0 {
			return invalidArgument("move target joints are empty")
		}
		return nil
	case targetPose:
		return checkPose(t.pose)
	default:
		return invalidArgument("move target is not set")
	}
}

func (t Target) encode(enc *wire.Encoder) error {
	if err := enc.WriteInt32(t.kind); err != nil {
		return err
	}

	switch t.kind {
	case targetItem:
		if err := enc.WriteArray(nil); err != nil {
			return err
		}
		return enc.WriteHandle(t.item.Handle())
	case targetJoints:
		if err := enc.WriteArray(t.joints); err != nil {
			return err
		}
	default:
		// a pose travels as its 16 column-major entries
		if err := enc.WriteArray(t.pose.Flatten()); err != nil {
			return err
		}
	}

	return enc.WriteHandle(0)
}

// checkItem rejects items obtained from another session.
func (s *Session) checkItem(items ...Item) error {
	for _, it := range items {
		if it.Valid() && it.s != s {
			return invalidArgument("%s belongs to another session", it)
		}
	}

	return nil
}

func checkPose(pose *robomath.Mat) error {
	switch {
	case pose == nil:
		return invalidArgument("pose is nil")
	case !pose.IsSquareHomogeneousShape():
		return invalidArgument("pose must be 4x4, got %dx%d", pose.Rows(), pose.Cols())
	}

	return nil
}

func readItem(s *Session, r *reply) (Item, error) {
	ref, err := r.ReadItemRef()
	if err != nil {
		return Item{}, err
	}

	return newItem(s, ref), nil
}
