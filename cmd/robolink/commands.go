package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RoboDK/RoboDK-API-sub002/robolink"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the host application version",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, _ []string) error {
		v, err := s.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d-bit, %s), API %d, build %d\n",
			v.App, v.Version, v.Bits, v.BuildDate, s.APIVersion(), s.HostBuild())

		return nil
	}),
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the station items",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, _ []string) error {
		t, _ := cmd.Flags().GetInt("type")
		items, err := s.ItemList(ctx, robolink.ItemType(t))
		if err != nil {
			return err
		}
		for _, it := range items {
			name, err := it.Name(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", it.Kind(), name)
		}

		return nil
	}),
}

var poseCmd = &cobra.Command{
	Use:   "pose <item>",
	Short: "Print the pose of an item as x y z roll pitch yaw",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, args []string) error {
		it, err := findItem(ctx, s, args[0], robolink.ItemTypeAny)
		if err != nil {
			return err
		}
		pose, err := it.Pose(ctx)
		if err != nil {
			return err
		}
		xyzrpw, err := pose.ToXYZRPW()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatValues(xyzrpw))

		return nil
	}),
}

var jointsCmd = &cobra.Command{
	Use:   "joints <robot>",
	Short: "Print the current joints of a robot",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, args []string) error {
		robot, err := findItem(ctx, s, args[0], robolink.ItemTypeRobot)
		if err != nil {
			return err
		}
		joints, err := robot.Joints(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatValues(joints))

		return nil
	}),
}

var moveCmd = &cobra.Command{
	Use:   "move <robot> <j1> [j2 ...]",
	Short: "Move a robot to a joint target and wait for the move to end",
	Args:  cobra.MinimumNArgs(2),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *robolink.Session, args []string) error {
		joints, err := parseValues(args[1:])
		if err != nil {
			return err
		}
		robot, err := findItem(ctx, s, args[0], robolink.ItemTypeRobot)
		if err != nil {
			return err
		}

		target := robolink.TargetJoints(joints)
		if linear, _ := cmd.Flags().GetBool("linear"); linear {
			return robot.MoveL(ctx, target, true)
		}

		return robot.MoveJ(ctx, target, true)
	}),
}

func init() {
	itemsCmd.Flags().Int("type", int(robolink.ItemTypeAny), "only list items of this type")
	moveCmd.Flags().Bool("linear", false, "linear move instead of joint move")

	rootCmd.AddCommand(versionCmd, itemsCmd, poseCmd, jointsCmd, moveCmd)
}

func parseValues(args []string) ([]float64, error) {
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		values[i] = v
	}

	return values, nil
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}

	return strings.Join(parts, " ")
}
