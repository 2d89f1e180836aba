package broken

// Valid is declared before the syntax error
type Valid struct{}

func Broken( {
