package planner

import "testing"

func TestDetector_ModelAffecting(t *testing.T) {
	detector := NewDetector([]string{"aws/sdk/aws-models", "codegen-core/"})

	tests := []struct {
		name    string
		changed []string
		want    bool
	}{
		{
			name:    "model file",
			changed: []string{"aws/sdk/aws-models/s3.json"},
			want:    true,
		},
		{
			name:    "nested model file",
			changed: []string{"aws/sdk/aws-models/endpoints/data.json"},
			want:    true,
		},
		{
			name:    "prefix with trailing slash in config",
			changed: []string{"codegen-core/src/lib.rs"},
			want:    true,
		},
		{
			name:    "exact prefix path",
			changed: []string{"aws/sdk/aws-models"},
			want:    true,
		},
		{
			name:    "unrelated path",
			changed: []string{"README.md"},
			want:    false,
		},
		{
			name:    "sibling directory sharing prefix string",
			changed: []string{"codegen-core-extras/file.rs"},
			want:    false,
		},
		{
			name:    "mixed changes",
			changed: []string{"README.md", "aws/sdk/aws-models/dynamodb.json"},
			want:    true,
		},
		{
			name:    "no changes",
			changed: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detector.ModelAffecting(tt.changed); got != tt.want {
				t.Errorf("ModelAffecting(%v) = %v, want %v", tt.changed, got, tt.want)
			}
		})
	}
}
