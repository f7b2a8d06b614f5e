// Package sanitize normalizes content names to the engine's accepted
// identifier charset and detects folder/declared-name mismatches.
//
// Folder names double as stable content ids, so Sanitize must be a pure
// function: installers and rename flows call it repeatedly and expect the
// same answer every time. DetectMismatch prefers the name declared inside
// a definition file over the folder name only when it passes a length
// heuristic (Detector.MinDeclaredLength, config-exposed).
package sanitize
