package assets

// Asset is one downloadable model file.
type Asset struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DefaultManifest lists the pose-estimation models the timer app bundles.
func DefaultManifest() []Asset {
	return []Asset{
		{
			Name:        "movenet_lightning",
			Filename:    "movenet_lightning.tflite",
			URL:         "https://tfhub.dev/google/movenet/singlepose/lightning/4?tf-hub-format=compressed",
			Description: "MoveNet Lightning - Fast single pose detection",
		},
		{
			Name:        "blazepose_lite",
			Filename:    "blazepose_lite.tflite",
			URL:         "https://tfhub.dev/mediapipe/tfjs-model/blazepose_3dpose/1?tf-hub-format=compressed",
			Description: "BlazePose Lite - Balanced speed and accuracy",
		},
		{
			Name:        "blazepose_full",
			Filename:    "blazepose_full.tflite",
			URL:         "https://tfhub.dev/mediapipe/tfjs-model/blazepose_3dpose/1?tf-hub-format=compressed",
			Description: "BlazePose Full - High accuracy pose detection",
		},
	}
}
