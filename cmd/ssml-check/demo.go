package main

import (
	"github.com/spf13/cobra"
)

// demoSample is a named document shown by the demo command.
type demoSample struct {
	name     string
	document string
}

var demoSamples = []demoSample{
	{
		name: "Valid SSML with supported tags",
		document: `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis">
    <emphasis level="strong">重要な</emphasis>お知らせです。
    <break time="1s"/>
    <prosody rate="slow" pitch="high">ゆっくり高い声で話します。</prosody>
    <say-as interpret-as="telephone">090-1234-5678</say-as>
</speak>`,
	},
	{
		name: "Valid SSML with mixed tags",
		document: `<speak>
    <voice name="ja-JP">
        <prosody rate="slow">ゆっくり</prosody>
        <phoneme alphabet="ipa" ph="test">test</phoneme>
    </voice>
</speak>`,
	},
	{
		name:     "Missing speak tag",
		document: `<prosody rate="slow">speakタグがありません</prosody>`,
	},
	{
		name: "Malformed XML",
		document: `<speak>
    <emphasis>閉じタグがありません
</speak>`,
	},
	{
		name: "Unsupported tags without speak tag",
		document: `<voice name="ja-JP">
    <prosody rate="slow">speakタグがありません</prosody>
</voice>`,
	},
}

func newDemoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Validate a set of built-in sample documents",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			validator, err := opts.validator()
			if err != nil {
				return err
			}

			results := make([]namedResult, 0, len(demoSamples))
			for _, sample := range demoSamples {
				results = append(results, namedResult{
					Name:    sample.name,
					Variant: validator.Variant(),
					Result:  validator.Validate(sample.document),
				})
			}

			return opts.printResults(results)
		},
	}
}
