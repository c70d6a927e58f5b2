// Package pose defines body keypoints and the sources that produce them frame by frame.
package pose

// Joint names following the COCO-17 keypoint convention.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Joints is the full joint vocabulary in COCO index order.
var Joints = []string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// ArmJoints returns the six joints needed to measure both elbow angles.
func ArmJoints() []string {
	return []string{LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist}
}

// IsJoint reports whether name belongs to the joint vocabulary.
func IsJoint(name string) bool {
	for _, j := range Joints {
		if j == name {
			return true
		}
	}
	return false
}

// Point is a 2D position. Units are whatever the producer uses (pixels or normalized).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is one named body landmark for a single frame.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Point returns the keypoint's position.
func (k Keypoint) Point() Point {
	return Point{X: k.X, Y: k.Y}
}

// Find returns the first keypoint with the given name.
func Find(keypoints []Keypoint, name string) (Keypoint, bool) {
	for _, k := range keypoints {
		if k.Name == name {
			return k, true
		}
	}
	return Keypoint{}, false
}

// Index maps joint names to keypoints. Later duplicates win.
func Index(keypoints []Keypoint) map[string]Keypoint {
	m := make(map[string]Keypoint, len(keypoints))
	for _, k := range keypoints {
		m[k.Name] = k
	}
	return m
}

// Clone returns a copy of keypoints that does not alias the input.
func Clone(keypoints []Keypoint) []Keypoint {
	if keypoints == nil {
		return nil
	}
	out := make([]Keypoint, len(keypoints))
	copy(out, keypoints)
	return out
}
