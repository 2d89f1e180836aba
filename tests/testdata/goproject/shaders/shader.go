package shaders

// Stage is a pipeline stage
type Stage string

// Shader is a compiled GPU program
type Shader struct {
	Name  string
	Stage Stage
}

// Compile builds the shader from source
func (s *Shader) Compile(source string) error {
	return nil
}

// Load reads a shader from disk
func Load(path string) (*Shader, error) {
	return &Shader{Name: path}, nil
}
