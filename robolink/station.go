package robolink

import (
	"context"
	"strings"

	"github.com/RoboDK/RoboDK-API-sub002/internal/util"
	"github.com/RoboDK/RoboDK-API-sub002/robomath"
	"github.com/RoboDK/RoboDK-API-sub002/wire"
)

// Projection selects how curves and points are projected onto an object surface.
type Projection int32

const (
	ProjectionNone              Projection = 0
	ProjectionClosest           Projection = 1
	ProjectionAlongNormal       Projection = 2
	ProjectionAlongNormalRecalc Projection = 3
	ProjectionClosestRecalc     Projection = 4
	ProjectionRecalc            Projection = 5
)

// Item returns the first item called name. With ItemTypeAny the name is matched across all
// types. A missing item is returned as the null Item, not as an error.
func (s *Session) Item(ctx context.Context, name string, itemType ItemType) (Item, error) {
	command := "G_Item2"
	if itemType < 0 {
		command = "G_Item"
	}

	var item Item
	err := s.call(ctx, command,
		func(enc *wire.Encoder) error {
			if err := enc.WriteLine(name); err != nil {
				return err
			}
			if itemType < 0 {
				return nil
			}
			return enc.WriteInt32(int32(itemType))
		},
		func(r *reply) (err error) {
			item, err = readItem(s, r)
			return err
		})

	return item, err
}

// ItemList returns the items of the station, optionally filtered by type.
func (s *Session) ItemList(ctx context.Context, itemType ItemType) ([]Item, error) {
	var items []Item
	err := s.call(ctx, listCommand("G_List_Items_ptr", "G_List_Items_Type_ptr", itemType),
		sendFilter(itemType),
		func(r *reply) error {
			n, err := r.ReadCount("item count")
			if err != nil {
				return err
			}
			items = make([]Item, 0, n)
			for range n {
				it, err := readItem(s, r)
				if err != nil {
					return err
				}
				items = append(items, it)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// ItemListNames returns the names of the station items, optionally filtered by type.
func (s *Session) ItemListNames(ctx context.Context, itemType ItemType) ([]string, error) {
	var names []string
	err := s.call(ctx, listCommand("G_List_Items", "G_List_Items_Type", itemType),
		sendFilter(itemType),
		func(r *reply) error {
			n, err := r.ReadCount("name count")
			if err != nil {
				return err
			}
			names = make([]string, 0, n)
			for range n {
				name, err := r.ReadLine()
				if err != nil {
					return err
				}
				names = append(names, name)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return names, nil
}

func listCommand(all, filtered string, itemType ItemType) string {
	if itemType < 0 {
		return all
	}
	return filtered
}

func sendFilter(itemType ItemType) sendFunc {
	if itemType < 0 {
		return nil
	}
	return func(enc *wire.Encoder) error { return enc.WriteInt32(int32(itemType)) }
}

// AddFile loads a station, robot, tool, object or program file. parent may be the null Item.
func (s *Session) AddFile(ctx context.Context, path string, parent Item) (Item, error) {
	if err := s.checkItem(parent); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.callLong(ctx, "Add", sendLineItem(path, parent), func(r *reply) (err error) {
		item, err = readItem(s, r)
		return err
	})

	return item, err
}

// Save saves item, or the whole station when item is null, to path.
func (s *Session) Save(ctx context.Context, path string, item Item) error {
	if err := s.checkItem(item); err != nil {
		return err
	}

	return s.callLong(ctx, "Save", sendLineItem(path, item), nil)
}

// CloseStation closes the active station without asking to save.
func (s *Session) CloseStation(ctx context.Context) error {
	return s.call(ctx, "RemoveStn", nil, nil)
}

// AddTarget adds an empty target under parent, associated with robot. Both may be null.
func (s *Session) AddTarget(ctx context.Context, name string, parent, robot Item) (Item, error) {
	if err := s.checkItem(parent, robot); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.call(ctx, "Add_TARGET",
		func(enc *wire.Encoder) error {
			if err := sendLineItem(name, parent)(enc); err != nil {
				return err
			}
			return enc.WriteHandle(robot.Handle())
		},
		func(r *reply) (err error) {
			item, err = readItem(s, r)
			return err
		})

	return item, err
}

// AddFrame adds a reference frame under parent, or under the station when parent is null.
func (s *Session) AddFrame(ctx context.Context, name string, parent Item) (Item, error) {
	return s.addNamed(ctx, "Add_FRAME", name, parent)
}

// AddProgram adds an empty program associated with robot, which may be null.
func (s *Session) AddProgram(ctx context.Context, name string, robot Item) (Item, error) {
	return s.addNamed(ctx, "Add_PROG", name, robot)
}

func (s *Session) addNamed(ctx context.Context, command, name string, ref Item) (Item, error) {
	if err := s.checkItem(ref); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.call(ctx, command, sendLineItem(name, ref), func(r *reply) (err error) {
		item, err = readItem(s, r)
		return err
	})

	return item, err
}

// AddCurve adds a curve through points, a 3xN matrix of positions or a 6xN matrix of
// positions and normals. When addToRef is set the curve is added to the object ref,
// otherwise a new object is created under ref.
func (s *Session) AddCurve(ctx context.Context, points *robomath.Mat, ref Item, addToRef bool, projection Projection) (Item, error) {
	return s.addGeometry(ctx, "AddWire", points, ref, addToRef, projection)
}

// AddPoints adds a point cloud. Arguments are the same as for AddCurve.
func (s *Session) AddPoints(ctx context.Context, points *robomath.Mat, ref Item, addToRef bool, projection Projection) (Item, error) {
	return s.addGeometry(ctx, "AddPoints", points, ref, addToRef, projection)
}

func (s *Session) addGeometry(ctx context.Context, command string, points *robomath.Mat, ref Item, addToRef bool, projection Projection) (Item, error) {
	if err := checkPointList(points); err != nil {
		return Item{}, err
	}
	if err := s.checkItem(ref); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.callLong(ctx, command,
		func(enc *wire.Encoder) error {
			if err := enc.WriteMatrix(points); err != nil {
				return err
			}
			if err := enc.WriteHandle(ref.Handle()); err != nil {
				return err
			}
			if err := enc.WriteInt32(int32(util.BoolToInt(addToRef))); err != nil {
				return err
			}
			return enc.WriteInt32(int32(projection))
		},
		func(r *reply) (err error) {
			item, err = readItem(s, r)
			return err
		})

	return item, err
}

// AddShape adds an object made of triangles: a 3xN or 6xN matrix where every three columns
// are the vertices of one triangle.
func (s *Session) AddShape(ctx context.Context, triangles *robomath.Mat, parent Item, addToParent bool) (Item, error) {
	if err := checkPointList(triangles); err != nil {
		return Item{}, err
	}
	if triangles.Cols()%3 != 0 {
		return Item{}, invalidArgument("triangle list has %d vertices, not a multiple of 3", triangles.Cols())
	}
	if err := s.checkItem(parent); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.callLong(ctx, "AddShape2",
		func(enc *wire.Encoder) error {
			if err := enc.WriteMatrix(triangles); err != nil {
				return err
			}
			if err := enc.WriteHandle(parent.Handle()); err != nil {
				return err
			}
			return enc.WriteInt32(int32(util.BoolToInt(addToParent)))
		},
		func(r *reply) (err error) {
			item, err = readItem(s, r)
			return err
		})

	return item, err
}

func checkPointList(points *robomath.Mat) error {
	if points == nil {
		return invalidArgument("point list is nil")
	}
	if rows := points.Rows(); rows != 3 && rows != 6 {
		return invalidArgument("point list must have 3 or 6 rows, got %d", rows)
	}
	if points.Cols() == 0 {
		return invalidArgument("point list is empty")
	}

	return nil
}

// Render refreshes the view. When alwaysRender is true the host goes back to rendering
// after every command.
func (s *Session) Render(ctx context.Context, alwaysRender bool) error {
	return s.call(ctx, "Render", func(enc *wire.Encoder) error {
		return enc.WriteInt32(int32(util.BoolToInt(!alwaysRender)))
	}, nil)
}

// Collisions returns the number of pairs of objects currently in collision.
func (s *Session) Collisions(ctx context.Context) (int, error) {
	var n int32
	err := s.call(ctx, "Collisions", nil, func(r *reply) (err error) {
		n, err = r.ReadInt32()
		return err
	})

	return int(n), err
}

// RunMode is the execution mode of the host.
type RunMode int32

const (
	RunModeSimulate      RunMode = 1
	RunModeQuickValidate RunMode = 2
	RunModeMakeRobotProg RunMode = 3
	RunModeRunRobot      RunMode = 6
)

// SetRunMode sets the execution mode.
func (s *Session) SetRunMode(ctx context.Context, mode RunMode) error {
	return s.call(ctx, "S_RunMode", func(enc *wire.Encoder) error {
		return enc.WriteInt32(int32(mode))
	}, nil)
}

// RunMode returns the execution mode.
func (s *Session) RunMode(ctx context.Context) (RunMode, error) {
	var mode int32
	err := s.call(ctx, "G_RunMode", nil, func(r *reply) (err error) {
		mode, err = r.ReadInt32()
		return err
	})

	return RunMode(mode), err
}

// SetParam sets a station parameter.
func (s *Session) SetParam(ctx context.Context, name, value string) error {
	return s.call(ctx, "S_Param", func(enc *wire.Encoder) error {
		if err := enc.WriteLine(name); err != nil {
			return err
		}
		return enc.WriteLine(value)
	}, nil)
}

// Param returns a station parameter. ok is false when the host does not know the parameter.
func (s *Session) Param(ctx context.Context, name string) (value string, ok bool, err error) {
	err = s.call(ctx, "G_Param", func(enc *wire.Encoder) error {
		return enc.WriteLine(name)
	}, func(r *reply) (err error) {
		value, err = r.ReadLine()
		return err
	})
	if err != nil {
		return "", false, err
	}

	if strings.EqualFold(value, "UNKNOWN "+name) {
		return "", false, nil
	}

	return value, true, nil
}

// ShowMessage shows msg to the user. With popup it blocks until the user closes the
// dialog, otherwise the message goes to the status bar.
func (s *Session) ShowMessage(ctx context.Context, msg string, popup bool) error {
	send := func(enc *wire.Encoder) error { return enc.WriteLine(msg) }
	if popup {
		return s.callLong(ctx, "ShowMessage", send, nil)
	}

	return s.call(ctx, "ShowMessageStatus", send, nil)
}

// Version returns the identity of the host application.
func (s *Session) Version(ctx context.Context) (HostVersion, error) {
	var v HostVersion
	err := s.call(ctx, "Version", nil, func(r *reply) error {
		var err error
		if v.App, err = r.ReadLine(); err != nil {
			return err
		}
		bits, err := r.ReadInt32()
		if err != nil {
			return err
		}
		v.Bits = int(bits)
		if v.Version, err = r.ReadLine(); err != nil {
			return err
		}
		v.BuildDate, err = r.ReadLine()
		return err
	})
	if err != nil {
		return HostVersion{}, err
	}

	return v, nil
}

// RunCode runs a program by name, or a single function call when isFunction is set.
// It returns the status reported by the host.
func (s *Session) RunCode(ctx context.Context, code string, isFunction bool) (int, error) {
	var status int32
	err := s.call(ctx, "RunCode",
		func(enc *wire.Encoder) error {
			if err := enc.WriteInt32(int32(util.BoolToInt(isFunction))); err != nil {
				return err
			}
			return enc.WriteLine(code)
		},
		func(r *reply) (err error) {
			status, err = r.ReadInt32()
			return err
		})

	return int(status), err
}

// CamSnapshot saves the view of camera, or of the main view when camera is null, to path.
func (s *Session) CamSnapshot(ctx context.Context, path string, camera Item) (bool, error) {
	if err := s.checkItem(camera); err != nil {
		return false, err
	}

	var ok int32
	err := s.callLong(ctx, "Cam2D_Snapshot", sendLineItem(path, camera), func(r *reply) (err error) {
		ok, err = r.ReadInt32()
		return err
	})

	return ok > 0, err
}

// Paste pastes the copied item under parent, or under the station when parent is null.
func (s *Session) Paste(ctx context.Context, parent Item) (Item, error) {
	if err := s.checkItem(parent); err != nil {
		return Item{}, err
	}

	var item Item
	err := s.call(ctx, "Paste", sendItem(parent), func(r *reply) (err error) {
		item, err = readItem(s, r)
		return err
	})

	return item, err
}

// CalibrateTool computes a tool center point from a set of robot poses or joints touching
// the same point, one per column of measurements. It returns the TCP position, the error
// statistics [mean, std, max] and the error per measurement.
func (s *Session) CalibrateTool(ctx context.Context, measurements *robomath.Mat, format, algorithm int, robot Item) (tcp, stats []float64, errs *robomath.Mat, err error) {
	if measurements == nil || measurements.Cols() == 0 {
		return nil, nil, nil, invalidArgument("no measurements")
	}
	if err := s.checkItem(robot); err != nil {
		return nil, nil, nil, err
	}

	err = s.callLong(ctx, "CalibTCP3",
		func(enc *wire.Encoder) error {
			if err := enc.WriteMatrix(measurements); err != nil {
				return err
			}
			if err := enc.WriteInt32(int32(format)); err != nil {
				return err
			}
			if err := enc.WriteInt32(int32(algorithm)); err != nil {
				return err
			}
			return enc.WriteHandle(robot.Handle())
		},
		func(r *reply) error {
			var err error
			if tcp, err = r.ReadArray(); err != nil {
				return err
			}
			if stats, err = r.ReadArray(); err != nil {
				return err
			}
			errs, err = r.ReadMatrix()
			return err
		})
	if err != nil {
		return nil, nil, nil, err
	}

	return tcp, stats, errs, nil
}

func sendItem(it Item) sendFunc {
	return func(enc *wire.Encoder) error { return enc.WriteHandle(it.Handle()) }
}

func sendLineItem(line string, it Item) sendFunc {
	return func(enc *wire.Encoder) error {
		if err := enc.WriteLine(line); err != nil {
			return err
		}
		return enc.WriteHandle(it.Handle())
	}
}
