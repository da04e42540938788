package robolink

import (
	"context"

	"github.com/RoboDK/RoboDK-API-sub002/internal/util"
	"github.com/RoboDK/RoboDK-API-sub002/robomath"
	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

// session returns the session of a non-null item.
func (it Item) session() (*Session, error) {
	if !it.Valid() || it.s == nil {
		return nil, invalidArgument("null item")
	}

	return it.s, nil
}

// Name returns the item name.
func (it Item) Name(ctx context.Context) (string, error) {
	s, err := it.session()
	if err != nil {
		return "", err
	}

	var name string
	err = s.call(ctx, "G_Name", sendItem(it), func(r *reply) (err error) {
		name, err = r.ReadLine()
		return err
	})

	return name, err
}

// SetName renames the item.
func (it Item) SetName(ctx context.Context, name string) error {
	s, err := it.session()
	if err != nil {
		return err
	}

	return s.call(ctx, "S_Name", func(enc *wire.Encoder) error {
		if err := enc.WriteHandle(it.Handle()); err != nil {
			return err
		}
		return enc.WriteLine(name)
	}, nil)
}

// Type asks the host for the item type. Unlike Kind it always reflects the host state.
func (it Item) Type(ctx context.Context) (ItemType, error) {
	s, err := it.session()
	if err != nil {
		return 0, err
	}

	var t int32
	err = s.call(ctx, "G_Item_Type", sendItem(it), func(r *reply) (err error) {
		t, err = r.ReadInt32()
		return err
	})

	return ItemType(t), err
}

// Pose returns the pose of the item relative to its parent.
func (it Item) Pose(ctx context.Context) (*robomath.Mat, error) {
	return it.getPose(ctx, "G_Hlocal")
}

// SetPose sets the pose of the item relative to its parent.
func (it Item) SetPose(ctx context.Context, pose *robomath.Mat) error {
	return it.setPose(ctx, "S_Hlocal", pose, false)
}

// PoseAbs returns the pose of the item relative to the station.
func (it Item) PoseAbs(ctx context.Context) (*robomath.Mat, error) {
	return it.getPose(ctx, "G_Hlocal_Abs")
}

// SetPoseAbs sets the pose of the item relative to the station.
func (it Item) SetPoseAbs(ctx context.Context, pose *robomath.Mat) error {
	return it.setPose(ctx, "S_Hlocal_Abs", pose, false)
}

// PoseTool returns the active tool pose of a robot, relative to its flange.
func (it Item) PoseTool(ctx context.Context) (*robomath.Mat, error) {
	return it.getPose(ctx, "G_Tool")
}

// SetPoseTool sets the active tool pose of a robot.
func (it Item) SetPoseTool(ctx context.Context, pose *robomath.Mat) error {
	return it.setPose(ctx, "S_Tool", pose, true)
}

// PoseFrame returns the active reference frame pose of a robot, relative to its base.
func (it Item) PoseFrame(ctx context.Context) (*robomath.Mat, error) {
	return it.getPose(ctx, "G_Frame")
}

// SetPoseFrame sets the active reference frame pose of a robot.
func (it Item) SetPoseFrame(ctx context.Context, pose *robomath.Mat) error {
	return it.setPose(ctx, "S_Frame", pose, true)
}

func (it Item) getPose(ctx context.Context, command string) (*robomath.Mat, error) {
	s, err := it.session()
	if err != nil {
		return nil, err
	}

	var pose *robomath.Mat
	err = s.call(ctx, command, sendItem(it), func(r *reply) (err error) {
		pose, err = r.ReadPose()
		return err
	})
	if err != nil {
		return nil, err
	}

	return pose, nil
}

// setPose sends the item then the pose, or the pose then the item when poseFirst is set,
// as the robot tool and frame commands expect.
func (it Item) setPose(ctx context.Context, command string, pose *robomath.Mat, poseFirst bool) error {
	s, err := it.session()
	if err != nil {
		return err
	}
	if err := checkPose(pose); err != nil {
		return err
	}

	return s.call(ctx, command, func(enc *wire.Encoder) error {
		if poseFirst {
			if err := enc.WritePose(pose); err != nil {
				return err
			}
			return enc.WriteHandle(it.Handle())
		}
		if err := enc.WriteHandle(it.Handle()); err != nil {
			return err
		}
		return enc.WritePose(pose)
	}, nil)
}

// Joints returns the current joint values of a robot or the joints of a target.
func (it Item) Joints(ctx context.Context) ([]float64, error) {
	return it.getArray(ctx, "G_Thetas")
}

// JointsHome returns the home joints of a robot.
func (it Item) JointsHome(ctx context.Context) ([]float64, error) {
	return it.getArray(ctx, "G_Home")
}

func (it Item) getArray(ctx context.Context, command string) ([]float64, error) {
	s, err := it.session()
	if err != nil {
		return nil, err
	}

	var values []float64
	err = s.call(ctx, command, sendItem(it), func(r *reply) (err error) {
		values, err = r.ReadArray()
		return err
	})
	if err != nil {
		return nil, err
	}

	return values, nil
}

// SetJoints sets the joints of a robot or a target without moving through intermediate points.
func (it Item) SetJoints(ctx context.Context, joints []float64) error {
	s, err := it.session()
	if err != nil {
		return err
	}
	if len(joints) == 0 {
		return invalidArgument("joints are empty")
	}

	return s.call(ctx, "S_Thetas", func(enc *wire.Encoder) error {
		if err := enc.WriteArray(joints); err != nil {
			return err
		}
		return enc.WriteHandle(it.Handle())
	}, nil)
}

// SolveFK computes the forward kinematics of a robot: the pose of the flange relative to
// the robot base for the given joints.
func (it Item) SolveFK(ctx context.Context, joints []float64) (*robomath.Mat, error) {
	s, err := it.session()
	if err != nil {
		return nil, err
	}
	if len(joints) == 0 {
		return nil, invalidArgument("joints are empty")
	}

	var pose *robomath.Mat
	err = s.call(ctx, "G_FK",
		func(enc *wire.Encoder) error {
			if err := enc.WriteArray(joints); err != nil {
				return err
			}
			return enc.WriteHandle(it.Handle())
		},
		func(r *reply) (err error) {
			pose, err = r.ReadPose()
			return err
		})
	if err != nil {
		return nil, err
	}

	return pose, nil
}

// SolveIK computes the joints closest to the current robot joints that place the flange
// at pose. An empty result means the pose is unreachable.
func (it Item) SolveIK(ctx context.Context, pose *robomath.Mat) ([]float64, error) {
	s, err := it.session()
	if err != nil {
		return nil, err
	}
	if err := checkPose(pose); err != nil {
		return nil, err
	}

	var joints []float64
	err = s.call(ctx, "G_IK",
		func(enc *wire.Encoder) error {
			if err := enc.WritePose(pose); err != nil {
				return err
			}
			return enc.WriteHandle(it.Handle())
		},
		func(r *reply) (err error) {
			joints, err = r.ReadArray()
			return err
		})
	if err != nil {
		return nil, err
	}

	return joints, nil
}

// SolveIKAll returns every inverse kinematics solution for pose, one per column.
func (it Item) SolveIKAll(ctx context.Context, pose *robomath.Mat) (*robomath.Mat, error) {
	s, err := it.session()
	if err != nil {
		return nil, err
	}
	if err := checkPose(pose); err != nil {
		return nil, err
	}

	var solutions *robomath.Mat
	err = s.call(ctx, "G_IK_cmpl",
		func(enc *wire.Encoder) error {
			if err := enc.WritePose(pose); err != nil {
				return err
			}
			return enc.WriteHandle(it.Handle())
		},
		func(r *reply) (err error) {
			solutions, err = r.ReadMatrix()
			return err
		})
	if err != nil {
		return nil, err
	}

	return solutions, nil
}

const (
	moveJoint  = 1
	moveLinear = 2
)

// MoveJ moves the robot to target with a joint move. With blocking the call returns when
// the move is complete, which may take up to the long timeout.
func (it Item) MoveJ(ctx context.Context, target Target, blocking bool) error {
	return it.move(ctx, moveJoint, target, blocking)
}

// MoveL moves the robot to target with a linear move. See MoveJ.
func (it Item) MoveL(ctx context.Context, target Target, blocking bool) error {
	return it.move(ctx, moveLinear, target, blocking)
}

func (it Item) move(ctx context.Context, moveType int32, target Target, blocking bool) error {
	s, err := it.session()
	if err != nil {
		return err
	}
	if err := target.validate(s); err != nil {
		return err
	}

	var recv recvFunc
	if blocking {
		recv = s.waitCompletion
	}

	return s.call(ctx, "MoveX", func(enc *wire.Encoder) error {
		if err := enc.WriteInt32(moveType); err != nil {
			return err
		}
		if err := target.encode(enc); err != nil {
			return err
		}
		return enc.WriteHandle(it.Handle())
	}, recv)
}

// WaitMove blocks until the robot has completed its current moves.
func (it Item) WaitMove(ctx context.Context) error {
	s, err := it.session()
	if err != nil {
		return err
	}

	return s.call(ctx, "WaitMove", sendItem(it), s.waitCompletion)
}

// waitCompletion reads the completion status that follows acceptance of a blocking command.
func (s *Session) waitCompletion(r *reply) error {
	if err := r.ExtendDeadline(s.cfg.LongTimeout()); err != nil {
		return err
	}

	return r.CheckStatus()
}

// MoveJTest checks a joint move from j1 to j2 for collisions, in steps of minStepDeg
// degrees. It returns the number of colliding pairs, 0 when the move is free.
func (it Item) MoveJTest(ctx context.Context, j1, j2 []float64, minStepDeg float64) (int, error) {
	s, err := it.session()
	if err != nil {
		return 0, err
	}
	if len(j1) == 0 || len(j1) != len(j2) {
		return 0, invalidArgument("joint vectors of length %d and %d", len(j1), len(j2))
	}

	var collisions int32
	err = s.callLong(ctx, "CollisionMove",
		func(enc *wire.Encoder) error {
			if err := enc.WriteHandle(it.Handle()); err != nil {
				return err
			}
			if err := enc.WriteArray(j1); err != nil {
				return err
			}
			if err := enc.WriteArray(j2); err != nil {
				return err
			}
			return enc.WriteInt32(int32(minStepDeg * 1000))
		},
		func(r *reply) (err error) {
			collisions, err = r.ReadInt32()
			return err
		})

	return int(collisions), err
}

// MoveLTest checks a linear move from joints j1 to pose for collisions, in steps of
// minStepMM millimeters. It returns 0 when the move is free, -1 when it is not feasible,
// or the number of colliding pairs.
func (it Item) MoveLTest(ctx context.Context, j1 []float64, pose *robomath.Mat, minStepMM float64) (int, error) {
	s, err := it.session()
	if err != nil {
		return 0, err
	}
	if len(j1) == 0 {
		return 0, invalidArgument("joints are empty")
	}
	if err := checkPose(pose); err != nil {
		return 0, err
	}

	var collisions int32
	err = s.callLong(ctx, "MoveL_Test",
		func(enc *wire.Encoder) error {
			if err := enc.WriteHandle(it.Handle()); err != nil {
				return err
			}
			if err := enc.WriteArray(j1); err != nil {
				return err
			}
			if err := enc.WritePose(pose); err != nil {
				return err
			}
			return enc.WriteInt32(int32(minStepMM * 1000))
		},
		func(r *reply) (err error) {
			collisions, err = r.ReadInt32()
			return err
		})

	return int(collisions), err
}

// SetColor sets the color of an object, tool or robot as [r, g, b, a] in [0, 1].
func (it Item) SetColor(ctx context.Context, rgba []float64) error {
	if len(rgba) != 4 {
		return invalidArgument("color must have 4 components, got %d", len(rgba))
	}
	for _, c := range rgba {
		if c < 0 || c > 1 {
			return invalidArgument("color component %v outside [0, 1]", c)
		}
	}

	return it.sendArray(ctx, "S_Color", rgba)
}

// Scale scales the geometry of an object, tool or robot along its x, y and z axes.
func (it Item) Scale(ctx context.Context, xyz []float64) error {
	if len(xyz) != 3 {
		return invalidArgument("scale must have 3 components, got %d", len(xyz))
	}

	return it.sendArray(ctx, "Scale", xyz)
}

func (it Item) sendArray(ctx context.Context, command string, values []float64) error {
	s, err := it.session()
	if err != nil {
		return err
	}

	return s.call(ctx, command, func(enc *wire.Encoder) error {
		if err := enc.WriteHandle(it.Handle()); err != nil {
			return err
		}
		return enc.WriteArray(util.CloneSlice(values, 0))
	}, nil)
}

// Delete removes the item and its children from the station. The Item becomes stale.
func (it Item) Delete(ctx context.Context) error {
	return it.simple(ctx, "Remove")
}

// Copy copies the item to the host clipboard. See Session.Paste.
func (it Item) Copy(ctx context.Context) error {
	return it.simple(ctx, "Copy")
}

func (it Item) simple(ctx context.Context, command string) error {
	s, err := it.session()
	if err != nil {
		return err
	}

	return s.call(ctx, command, sendItem(it), nil)
}

// RunProgram starts a program item. It returns the status reported by the host without
// waiting for the program to end.
func (it Item) RunProgram(ctx context.Context) (int, error) {
	return it.getInt(ctx, "RunProg")
}

// InstructionCount returns the number of instructions of a program.
func (it Item) InstructionCount(ctx context.Context) (int, error) {
	return it.getInt(ctx, "Prog_Nins")
}

func (it Item) getInt(ctx context.Context, command string) (int, error) {
	s, err := it.session()
	if err != nil {
		return 0, err
	}

	var v int32
	err = s.call(ctx, command, sendItem(it), func(r *reply) (err error) {
		v, err = r.ReadInt32()
		return err
	})

	return int(v), err
}

// MakeProgram generates the robot program of a program item into path.
// It returns whether generation succeeded and the host's generation log.
func (it Item) MakeProgram(ctx context.Context, path string) (bool, string, error) {
	s, err := it.session()
	if err != nil {
		return false, "", err
	}

	var (
		status int32
		log    string
	)
	err = s.callLong(ctx, "MakeProg",
		func(enc *wire.Encoder) error {
			if err := enc.WriteHandle(it.Handle()); err != nil {
				return err
			}
			return enc.WriteLine(path)
		},
		func(r *reply) error {
			var err error
			if status, err = r.ReadInt32(); err != nil {
				return err
			}
			log, err = r.ReadLine()
			return err
		})
	if err != nil {
		return false, "", err
	}

	return status > 0, log, nil
}

// Instruction returns the instruction of a program at index i.
func (it Item) Instruction(ctx context.Context, i int) (ProgramInstruction, error) {
	s, err := it.session()
	if err != nil {
		return ProgramInstruction{}, err
	}
	if i < 0 {
		return ProgramInstruction{}, invalidArgument("instruction index %d", i)
	}

	var ins ProgramInstruction
	err = s.call(ctx, "Prog_GIns",
		func(enc *wire.Encoder) error {
			if err := enc.WriteHandle(it.Handle()); err != nil {
				return err
			}
			return enc.WriteInt32(int32(i))
		},
		func(r *reply) error {
			var err error
			if ins.Name, err = r.ReadLine(); err != nil {
				return err
			}
			fields := make([]int32, 3)
			for k := range fields {
				if fields[k], err = r.ReadInt32(); err != nil {
					return err
				}
			}
			ins.Type, ins.MoveType, ins.IsJointTarget = int(fields[0]), int(fields[1]), fields[2] > 0
			if ins.Pose, err = r.ReadPose(); err != nil {
				return err
			}
			ins.Joints, err = r.ReadArray()
			return err
		})
	if err != nil {
		return ProgramInstruction{}, err
	}

	return ins, nil
}

// InstructionList returns the instructions of a program as a matrix, one column per
// instruction, and the number of instructions with errors.
func (it Item) InstructionList(ctx context.Context) (*robomath.Mat, int, error) {
	s, err := it.session()
	if err != nil {
		return nil, 0, err
	}

	var (
		list   *robomath.Mat
		errCnt int32
	)
	err = s.call(ctx, "G_ProgInsList", sendItem(it), func(r *reply) error {
		var err error
		if list, err = r.ReadMatrix(); err != nil {
			return err
		}
		errCnt, err = r.ReadInt32()
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	return list, int(errCnt), nil
}
