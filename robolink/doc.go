// Package robolink is a client for the API of the robot simulation host.
//
// A Session owns one TCP connection. Every command is a synchronous round trip:
// the command name and its payload are written, then the client blocks for a status
// code and the typed response fields (see package wire for the encodings).
//
//	s, err := robolink.Dial(ctx, "", 0)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	robot, err := s.Item(ctx, "UR10", robolink.ItemTypeRobot)
//	joints, err := robot.Joints(ctx)
//
// Status codes reported by the host map to errors: ErrInvalidItem, *RemoteError,
// ErrLicense and ErrUnknownStatus leave the session usable. Warnings are not errors;
// their text is available from Session.LastStatusMessage. Any other failure, including
// an expired timeout, is a *TransportError or a *ProtocolError and disconnects the session,
// since the position in the response stream is lost.
//
// Commands flagged as long-running (file loads, program generation, collision tests,
// popups, blocking moves) use the long timeout instead of the command timeout.
package robolink
