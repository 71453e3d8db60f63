package msk

import "github.com/aws/aws-lambda-go/lambda"

var engine *Engine

// Serve builds the Engine and hands it to the Lambda runtime as the MSK
// event handler.
func Serve(opts ...Option) {
	engine = NewEngine(opts...)
	lambda.Start(engine)
}

func Close() {
	if engine != nil {
		engine.Stop()
	}
}
