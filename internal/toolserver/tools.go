package toolserver

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"math"
	mrand "math/rand"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/modelgate/gateagent/internal/calc"
	"github.com/modelgate/gateagent/internal/model"
)

// DefaultRegistry builds the full built-in tool set, including the in-memory
// SQLite database behind database_query. Callers own closing the returned
// database.
func DefaultRegistry() (*Registry, *sql.DB, error) {
	db, err := openToolDB()
	if err != nil {
		return nil, nil, err
	}
	r := NewRegistry()
	registerBuiltins(r, db)
	return r, db, nil
}

func registerBuiltins(r *Registry, db *sql.DB) {
	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "calculator",
			Description: "Perform mathematical calculations. Supports basic arithmetic, trigonometry, and common functions.",
			InputSchema: objectSchema(map[string]any{
				"expression": prop("string", "Mathematical expression to evaluate (e.g., '2 + 2', 'sin(3.14)', 'sqrt(16)')"),
			}, "expression"),
		},
		Category: "utilities",
		Handler:  handleCalculator,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "get_weather",
			Description: "Get current weather information for a specified city. Returns temperature, conditions, and forecast.",
			InputSchema: objectSchema(map[string]any{
				"city":  prop("string", "City name (e.g., 'San Francisco', 'London', 'Tokyo')"),
				"units": enumProp("Temperature units", "celsius", "fahrenheit"),
			}, "city"),
		},
		Category: "api",
		Handler:  handleWeather,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "search_files",
			Description: "Search for files matching a pattern in a directory. Returns list of matching file paths.",
			InputSchema: objectSchema(map[string]any{
				"pattern":   prop("string", "File pattern to search for (e.g., '*.go', 'README*')"),
				"directory": prop("string", "Directory to search in (defaults to current directory)"),
				"recursive": prop("boolean", "Whether to search subdirectories"),
			}, "pattern"),
		},
		Category: "file-system",
		Handler:  handleSearchFiles,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "send_notification",
			Description: "Send a notification message. Supports different priority levels and channels.",
			InputSchema: objectSchema(map[string]any{
				"message":  prop("string", "Notification message content"),
				"title":    prop("string", "Notification title"),
				"priority": enumProp("Notification priority level", "low", "normal", "high", "urgent"),
				"channel":  enumProp("Notification channel", "email", "slack", "sms", "push"),
			}, "message"),
		},
		Category: "messaging",
		Handler:  handleNotification,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "get_system_info",
			Description: "Get information about the current system including OS, architecture and runtime version.",
			InputSchema: objectSchema(map[string]any{
				"include_env": prop("boolean", "Include selected environment variables in response"),
			}),
		},
		Category: "utilities",
		Handler:  handleSystemInfo,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "database_query",
			Description: "Execute a SQL query against the server's sample database. SELECT returns rows, other statements return affected row counts.",
			InputSchema: objectSchema(map[string]any{
				"query": prop("string", "SQL query to execute"),
				"limit": prop("integer", "Maximum number of rows to return"),
			}, "query"),
		},
		Category: "database",
		Handler:  databaseHandler(db),
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "translate_text",
			Description: "Translate text from one language to another. Supports major world languages.",
			InputSchema: objectSchema(map[string]any{
				"text":            prop("string", "Text to translate"),
				"source_language": prop("string", "Source language code (e.g., 'en', 'es', 'fr')"),
				"target_language": prop("string", "Target language code (e.g., 'en', 'es', 'fr')"),
			}, "text", "target_language"),
		},
		Category: "api",
		Handler:  handleTranslate,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "analyze_image",
			Description: "Analyze an image and return detected objects, text, and scene description.",
			InputSchema: objectSchema(map[string]any{
				"image_url": prop("string", "URL of the image to analyze"),
				"analysis_types": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Types of analysis: objects, text, faces, scenes",
				},
			}, "image_url"),
		},
		Category: "api",
		Handler:  handleAnalyzeImage,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "echo",
			Description: "Simple echo tool that returns the input message. Useful for testing connectivity.",
			InputSchema: objectSchema(map[string]any{
				"message": prop("string", "Message to echo back"),
			}, "message"),
		},
		Category: "utilities",
		Handler:  handleEcho,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "execute_shell",
			Description: "Execute a shell command on the system. Restricted to a small allowlist of read-only commands.",
			InputSchema: objectSchema(map[string]any{
				"command": prop("string", "Shell command to execute"),
				"timeout": prop("integer", "Command timeout in seconds"),
			}, "command"),
		},
		Category: "shell",
		Handler:  handleShell,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "get_datetime",
			Description: "Get the current date and time, optionally in a named IANA timezone.",
			InputSchema: objectSchema(map[string]any{
				"timezone": prop("string", "IANA timezone name (e.g., 'Europe/Paris'); defaults to local time"),
			}),
		},
		Category: "utilities",
		Handler:  handleDatetime,
	})

	r.Register(Tool{
		Descriptor: model.ToolDescriptor{
			Name:        "hash_text",
			Description: "Compute a cryptographic hash of the given text. Supports md5, sha1 and sha256.",
			InputSchema: objectSchema(map[string]any{
				"text":      prop("string", "Text to hash"),
				"algorithm": enumProp("Hash algorithm", "md5", "sha1", "sha256"),
			}, "text"),
		},
		Category: "utilities",
		Handler:  handleHash,
	})
}

func handleCalculator(args map[string]any) (map[string]any, error) {
	expression := stringArg(args, "expression", "")
	if expression == "" {
		return nil, fmt.Errorf("expression is required")
	}
	value, err := calc.Eval(expression)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %q: %w", expression, err)
	}
	return map[string]any{
		"expression": expression,
		"result":     calc.Format(value),
	}, nil
}

func handleWeather(args map[string]any) (map[string]any, error) {
	city := stringArg(args, "city", "")
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}
	units := stringArg(args, "units", "celsius")

	// Mock data, stable per city so repeated calls within a session agree.
	seed := int64(0)
	for _, r := range strings.ToLower(city) {
		seed = seed*31 + int64(r)
	}
	rng := mrand.New(mrand.NewSource(seed))
	temp := 15 + rng.Intn(16)
	if units == "fahrenheit" {
		temp = temp*9/5 + 32
	}
	conditions := []string{"Sunny", "Cloudy", "Partly Cloudy", "Rainy", "Clear"}[rng.Intn(5)]

	return map[string]any{
		"city":        city,
		"temperature": temp,
		"units":       units,
		"conditions":  conditions,
		"humidity":    30 + rng.Intn(51),
		"wind_speed":  5 + rng.Intn(21),
		"forecast": []map[string]any{
			{"day": "Tomorrow", "high": temp + 2, "low": temp - 5, "conditions": "Sunny"},
			{"day": "Day After", "high": temp + 1, "low": temp - 3, "conditions": "Cloudy"},
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}, nil
}

func handleSearchFiles(args map[string]any) (map[string]any, error) {
	pattern := stringArg(args, "pattern", "")
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	directory := stringArg(args, "directory", ".")
	recursive := boolArg(args, "recursive", false)

	var matches []string
	if recursive {
		err := filepath.WalkDir(directory, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() {
				return nil
			}
			if ok, _ := path.Match(pattern, d.Name()); ok {
				matches = append(matches, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(directory)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := path.Match(pattern, e.Name()); ok {
				matches = append(matches, filepath.Join(directory, e.Name()))
			}
		}
	}

	total := len(matches)
	if len(matches) > 50 {
		matches = matches[:50]
	}
	return map[string]any{
		"pattern":     pattern,
		"directory":   directory,
		"recursive":   recursive,
		"matches":     matches,
		"total_found": total,
	}, nil
}

func handleNotification(args map[string]any) (map[string]any, error) {
	message := stringArg(args, "message", "")
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	title := stringArg(args, "title", "Notification")
	priority := stringArg(args, "priority", "normal")
	channel := stringArg(args, "channel", "push")

	preview := message
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	return map[string]any{
		"status":          "sent",
		"notification_id": shortID(),
		"channel":         channel,
		"priority":        priority,
		"title":           title,
		"message_preview": preview,
		"timestamp":       time.Now().Format(time.RFC3339),
	}, nil
}

func handleSystemInfo(args map[string]any) (map[string]any, error) {
	hostname, _ := os.Hostname()
	info := map[string]any{
		"os":           runtime.GOOS,
		"architecture": runtime.GOARCH,
		"go_version":   runtime.Version(),
		"num_cpu":      runtime.NumCPU(),
		"hostname":     hostname,
		"timestamp":    time.Now().Format(time.RFC3339),
	}
	if boolArg(args, "include_env", false) {
		safe := []string{"PATH", "HOME", "USER", "SHELL", "LANG"}
		env := map[string]string{}
		for _, key := range safe {
			if value, ok := os.LookupEnv(key); ok {
				env[key] = value
			}
		}
		info["environment"] = env
	}
	return info, nil
}

func openToolDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// A single connection keeps the in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	seed := `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL);
INSERT INTO users (name, email) VALUES
  ('Test User 1', 'user1@test.com'),
  ('Test User 2', 'user2@test.com'),
  ('Test User 3', 'user3@test.com');
CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL, item TEXT NOT NULL, amount REAL NOT NULL);
INSERT INTO orders (user_id, item, amount) VALUES
  (1, 'keyboard', 49.90),
  (1, 'monitor', 219.00),
  (2, 'mouse', 19.50);
`
	if _, err := db.Exec(seed); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seeding sample database: %w", err)
	}
	return db, nil
}

func databaseHandler(db *sql.DB) Handler {
	return func(args map[string]any) (map[string]any, error) {
		query := strings.TrimSpace(stringArg(args, "query", ""))
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}
		limit := intArg(args, "limit", 10)
		if limit <= 0 {
			limit = 10
		}

		start := time.Now()
		if strings.HasPrefix(strings.ToLower(query), "select") {
			rows, err := db.Query(query)
			if err != nil {
				return nil, err
			}
			defer func() {
				_ = rows.Close()
			}()
			out, err := scanRows(rows, limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"query":             query,
				"rows":              out,
				"row_count":         len(out),
				"execution_time_ms": time.Since(start).Milliseconds(),
			}, nil
		}

		result, err := db.Exec(query)
		if err != nil {
			return nil, err
		}
		affected, _ := result.RowsAffected()
		return map[string]any{
			"query":             query,
			"affected_rows":     affected,
			"execution_time_ms": time.Since(start).Milliseconds(),
		}, nil
	}
}

func scanRows(rows *sql.Rows, limit int) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() && len(out) < limit {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := map[string]any{}
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func handleTranslate(args map[string]any) (map[string]any, error) {
	text := stringArg(args, "text", "")
	target := stringArg(args, "target_language", "")
	if text == "" || target == "" {
		return nil, fmt.Errorf("text and target_language are required")
	}
	source := stringArg(args, "source_language", "auto")

	dictionaries := map[string]map[string]string{
		"es": {"hello": "hola", "world": "mundo", "thank you": "gracias"},
		"fr": {"hello": "bonjour", "world": "monde", "thank you": "merci"},
		"de": {"hello": "hallo", "world": "welt", "thank you": "danke"},
		"ja": {"hello": "こんにちは", "world": "世界", "thank you": "ありがとう"},
	}
	translated := fmt.Sprintf("[%s] %s", target, text)
	if dict, ok := dictionaries[target]; ok {
		if word, ok := dict[strings.ToLower(strings.TrimSpace(text))]; ok {
			translated = word
		}
	}
	return map[string]any{
		"original_text":   text,
		"translated_text": translated,
		"source_language": source,
		"target_language": target,
		"confidence":      0.95,
	}, nil
}

func handleAnalyzeImage(args map[string]any) (map[string]any, error) {
	imageURL := stringArg(args, "image_url", "")
	if imageURL == "" {
		return nil, fmt.Errorf("image_url is required")
	}
	types := stringSliceArg(args, "analysis_types", []string{"objects", "scenes"})

	results := map[string]any{}
	for _, t := range types {
		switch t {
		case "objects":
			results["objects"] = []map[string]any{
				{"label": "person", "confidence": 0.95, "bounding_box": []int{10, 20, 100, 200}},
				{"label": "laptop", "confidence": 0.88, "bounding_box": []int{150, 100, 250, 180}},
			}
		case "scenes":
			results["scenes"] = []map[string]any{
				{"label": "office", "confidence": 0.82},
				{"label": "indoor", "confidence": 0.96},
			}
		case "text":
			results["text"] = []map[string]any{
				{"text": "Hello World", "confidence": 0.91, "location": []int{50, 50, 150, 70}},
			}
		case "faces":
			results["faces"] = []map[string]any{
				{"confidence": 0.94, "emotion": "neutral", "age_range": []int{25, 35}},
			}
		}
	}
	return map[string]any{
		"image_url":      imageURL,
		"analysis_types": types,
		"results":        results,
	}, nil
}

func handleEcho(args map[string]any) (map[string]any, error) {
	return map[string]any{
		"echo":      stringArg(args, "message", ""),
		"timestamp": time.Now().Format(time.RFC3339),
		"server":    serverName,
	}, nil
}

var allowedShellPrefixes = []string{"echo", "date", "whoami", "pwd", "ls", "uname"}

func handleShell(args map[string]any) (map[string]any, error) {
	command := strings.TrimSpace(stringArg(args, "command", ""))
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}
	timeout := intArg(args, "timeout", 30)
	if timeout <= 0 || timeout > 120 {
		timeout = 30
	}

	allowed := false
	lower := strings.ToLower(command)
	for _, prefix := range allowedShellPrefixes {
		if strings.HasPrefix(lower, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("command not allowed, permitted prefixes: %s", strings.Join(allowedShellPrefixes, ", "))
	}

	cmd := exec.Command("sh", "-c", command)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(time.Duration(timeout) * time.Second):
		_ = cmd.Process.Kill()
		<-done
		return nil, fmt.Errorf("command timed out after %ds", timeout)
	case err := <-done:
		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else if err != nil {
			return nil, err
		}
		return map[string]any{
			"command":     command,
			"stdout":      stdout.String(),
			"stderr":      stderr.String(),
			"return_code": code,
		}, nil
	}
}

func handleDatetime(args map[string]any) (map[string]any, error) {
	now := time.Now()
	zone := stringArg(args, "timezone", "")
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q", zone)
		}
		now = now.In(loc)
	}
	name, offset := now.Zone()
	return map[string]any{
		"iso":            now.Format(time.RFC3339),
		"unix":           now.Unix(),
		"weekday":        now.Weekday().String(),
		"timezone":       name,
		"offset_seconds": offset,
	}, nil
}

func handleHash(args map[string]any) (map[string]any, error) {
	text := stringArg(args, "text", "")
	algorithm := stringArg(args, "algorithm", "sha256")

	var digest []byte
	switch algorithm {
	case "md5":
		sum := md5.Sum([]byte(text))
		digest = sum[:]
	case "sha1":
		sum := sha1.Sum([]byte(text))
		digest = sum[:]
	case "sha256":
		sum := sha256.Sum256([]byte(text))
		digest = sum[:]
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
	return map[string]any{
		"algorithm": algorithm,
		"length":    len(text),
		"digest":    hex.EncodeToString(digest),
	}, nil
}

// Argument helpers. JSON numbers decode as float64, so integer arguments
// tolerate both forms.

func stringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch value := args[key].(type) {
	case float64:
		if value == math.Trunc(value) {
			return int(value)
		}
	case int:
		return value
	}
	return fallback
}

func stringSliceArg(args map[string]any, key string, fallback []string) []string {
	items, ok := args[key].([]any)
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func shortID() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	req := make([]any, 0, len(required))
	for _, name := range required {
		req = append(req, name)
	}
	schema["required"] = req
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	enum := make([]any, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}
	return map[string]any{"type": "string", "description": description, "enum": enum}
}
