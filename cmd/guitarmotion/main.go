package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/server"
	"github.com/SRojas22/GuitarMotion/internal/session"
	"github.com/SRojas22/GuitarMotion/internal/store"
	"github.com/SRojas22/GuitarMotion/internal/tray"
)

func main() {
	cameraID := flag.Int("camera", 0, "camera device ID")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	chordFile := flag.String("chords", "", "path to a chord library JSON file")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	fmt.Println("GuitarMotion - Guitar Practice Coach")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".guitarmotion")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "guitarmotion.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Load the chord library
	library := chord.DefaultLibrary()
	if *chordFile != "" {
		library, err = chord.LoadLibrary(*chordFile)
		if err != nil {
			log.Fatalf("Failed to load chord library: %v", err)
		}
	}

	// Create and start the practice pipeline
	sess := session.New(session.Config{
		Store:    st,
		CameraID: *cameraID,
		Library:  library,
	})
	if err := sess.Start(); err != nil {
		log.Fatalf("Failed to start practice pipeline: %v", err)
	}
	sess.SetEnabled(true)
	defer sess.Stop()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Session:   sess,
		Library:   library,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *noTray {
		select {}
	}

	// The tray owns the main thread until quit
	tr := tray.New()
	tr.OnToggle(func(enabled bool) {
		sess.SetEnabled(enabled)
	})
	tr.OnQuit(func() {
		sess.Stop()
	})
	tr.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.guitarmotion/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".guitarmotion", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
