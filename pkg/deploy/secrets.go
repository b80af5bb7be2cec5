package deploy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// resolveApiKey fills in the OpenAI API key before any resource step runs.
// Order: explicit option, OPENAI_API_KEY from the environment, interactive
// prompt. An empty answer aborts the run, the key is never silently empty.
func (d *Deployer) resolveApiKey() error {
	if d.opts.ApiKey != "" {
		return nil
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		d.opts.ApiKey = v
		return nil
	}

	d.printf("OPENAI_API_KEY is not set.")
	_, _ = fmt.Fprint(d.out, "Enter your OpenAI API key: ")
	line, err := bufio.NewReader(d.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return errors.New("an OpenAI API key is required, set OPENAI_API_KEY or enter one at the prompt")
	}
	d.opts.ApiKey = key
	return nil
}
